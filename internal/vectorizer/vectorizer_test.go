package vectorizer

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var corpus = []string{
	"server outage need attention",
	"server outage again today",
	"package shipped order tracking",
	"package order arrives tomorrow",
	"sale offer discount today",
	"sale offer ends soon",
}

func fitted(t *testing.T) (*TfidfVectorizer, []FeatureVector) {
	t.Helper()
	v, err := New(DefaultConfig())
	require.NoError(t, err)
	matrix, err := v.Fit(corpus)
	require.NoError(t, err)
	return v, matrix
}

func l2(fv FeatureVector) float64 {
	var s float64
	for _, x := range fv.Values {
		s += x * x
	}
	return math.Sqrt(s)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	bad := []func(*Config){
		func(c *Config) { c.MaxFeatures = 0 },
		func(c *Config) { c.NGramMin = 0 },
		func(c *Config) { c.NGramMax = 0 },
		func(c *Config) { c.MinDF = 0 },
		func(c *Config) { c.MaxDF = 0 },
		func(c *Config) { c.MaxDF = 1.5 },
	}
	for _, mutate := range bad {
		cfg := DefaultConfig()
		mutate(&cfg)
		_, err := New(cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	}
}

func TestFitVocabulary(t *testing.T) {
	v, matrix := fitted(t)

	// df=1 terms and stop words are pruned, bigrams survive when repeated
	vocab := v.Vocabulary()
	assert.Contains(t, vocab, "server")
	assert.Contains(t, vocab, "server outage")
	assert.Contains(t, vocab, "sale offer")
	assert.NotContains(t, vocab, "attention")
	assert.NotContains(t, vocab, "again")
	assert.True(t, isSorted(vocab))

	assert.Equal(t, len(vocab), v.VocabularySize())
	require.Len(t, matrix, len(corpus))
	for _, row := range matrix {
		assert.Equal(t, v.VocabularySize(), row.Dim)
		assert.InDelta(t, 1.0, l2(row), 1e-9)
	}
}

func isSorted(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] >= s[i] {
			return false
		}
	}
	return true
}

func TestAnalyzeUnicodeTokens(t *testing.T) {
	v, err := New(Config{MaxFeatures: 100, NGramMin: 1, NGramMax: 1, MinDF: 1, MaxDF: 1})
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"café", "naïve", "東京", "résumé_2", "don", "42"},
		v.analyze("Café naïve 東京 a résumé_2 don't 42"))

	_, err = v.Fit([]string{"Café crème", "café noir", "Привет мир"})
	require.NoError(t, err)
	assert.Equal(t, []string{"café", "crème", "noir", "мир", "привет"}, v.Vocabulary())
}

func TestIDF(t *testing.T) {
	v, _ := fitted(t)

	idf, ok := v.IDF("server")
	require.True(t, ok)
	assert.InDelta(t, math.Log(7.0/3.0)+1, idf, 1e-12)

	_, ok = v.IDF("nonexistent")
	assert.False(t, ok)
}

func TestFitTwice(t *testing.T) {
	v, _ := fitted(t)
	_, err := v.Fit(corpus)
	assert.ErrorIs(t, err, ErrAlreadyFitted)
}

func TestFitErrors(t *testing.T) {
	v, err := New(DefaultConfig())
	require.NoError(t, err)
	_, err = v.Fit(nil)
	assert.ErrorIs(t, err, ErrEmptyCorpus)

	v, err = New(DefaultConfig())
	require.NoError(t, err)
	_, err = v.Fit([]string{"alpha beta", "gamma delta", "epsilon zeta"})
	assert.ErrorIs(t, err, ErrEmptyVocabulary)
}

func TestTransformBeforeFit(t *testing.T) {
	v, err := New(DefaultConfig())
	require.NoError(t, err)
	_, err = v.Transform("anything")
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestTransformMatchesFit(t *testing.T) {
	v, matrix := fitted(t)
	for i, doc := range corpus {
		fv, err := v.Transform(doc)
		require.NoError(t, err)
		assert.Equal(t, matrix[i], fv)
	}
}

func TestTransformUnknownTerms(t *testing.T) {
	v, _ := fitted(t)
	fv, err := v.Transform("completely unrelated words")
	require.NoError(t, err)
	assert.Equal(t, 0, fv.NNZ())
	assert.Equal(t, v.VocabularySize(), fv.Dim)
}

func TestMaxFeatures(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFeatures = 3
	v, err := New(cfg)
	require.NoError(t, err)
	_, err = v.Fit(corpus)
	require.NoError(t, err)
	assert.Equal(t, 3, v.VocabularySize())
}

func TestBinaryRoundTrip(t *testing.T) {
	v, _ := fitted(t)
	blob, err := v.MarshalBinary()
	require.NoError(t, err)

	var restored TfidfVectorizer
	require.NoError(t, restored.UnmarshalBinary(blob))
	assert.Equal(t, v.Vocabulary(), restored.Vocabulary())

	for _, doc := range append(corpus, "server package sale") {
		want, err := v.Transform(doc)
		require.NoError(t, err)
		got, err := restored.Transform(doc)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	var v TfidfVectorizer
	assert.Error(t, v.UnmarshalBinary([]byte("not snappy")))
}

func TestMarshalUnfitted(t *testing.T) {
	v, err := New(DefaultConfig())
	require.NoError(t, err)
	_, err = v.MarshalBinary()
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestLoadStoplist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("terms:\n  - Server\n  - ' down '\n"), 0o644))

	sl, err := LoadStoplist(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"server", "down"}, sl.Terms)

	_, err = LoadStoplist(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnglishStopWords(t *testing.T) {
	words := EnglishStopWords()
	assert.Len(t, words, 318)
	words[0] = "mutated"
	assert.NotEqual(t, "mutated", EnglishStopWords()[0])
}
