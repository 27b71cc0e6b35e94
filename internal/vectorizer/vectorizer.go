package vectorizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/golang/snappy"
)

var (
	// ErrNotFitted is returned when Transform is called before Fit
	ErrNotFitted = errors.New("vectorizer not fitted")
	// ErrAlreadyFitted is returned when Fit is called on a fitted vectorizer
	ErrAlreadyFitted = errors.New("vectorizer already fitted")
	// ErrEmptyCorpus is returned when Fit receives no documents
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrEmptyVocabulary is returned when pruning leaves no terms
	ErrEmptyVocabulary = errors.New("no terms remain after pruning")
	// ErrInvalidConfig is returned for out-of-range configuration values
	ErrInvalidConfig = errors.New("invalid vectorizer configuration")
)

// tokenPattern matches maximal runs of two or more Unicode letters, digits
// or underscores. RE2's \w and \b only cover ASCII.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Config holds the vectorizer settings. It is validated once by New.
type Config struct {
	MaxFeatures int      `json:"max_features"`
	NGramMin    int      `json:"ngram_min"`
	NGramMax    int      `json:"ngram_max"`
	MinDF       int      `json:"min_df"`
	MaxDF       float64  `json:"max_df"`
	StopWords   []string `json:"stop_words"`
}

// DefaultConfig returns unigram+bigram settings capped at 1000 terms
func DefaultConfig() Config {
	return Config{
		MaxFeatures: 1000,
		NGramMin:    1,
		NGramMax:    2,
		MinDF:       2,
		MaxDF:       0.8,
		StopWords:   EnglishStopWords(),
	}
}

// Validate checks the configuration for out-of-range values
func (c Config) Validate() error {
	switch {
	case c.MaxFeatures <= 0:
		return fmt.Errorf("%w: max_features must be positive, got %d", ErrInvalidConfig, c.MaxFeatures)
	case c.NGramMin < 1 || c.NGramMax < c.NGramMin:
		return fmt.Errorf("%w: ngram range (%d, %d)", ErrInvalidConfig, c.NGramMin, c.NGramMax)
	case c.MinDF < 1:
		return fmt.Errorf("%w: min_df must be at least 1, got %d", ErrInvalidConfig, c.MinDF)
	case c.MaxDF <= 0 || c.MaxDF > 1:
		return fmt.Errorf("%w: max_df must be in (0, 1], got %g", ErrInvalidConfig, c.MaxDF)
	}
	return nil
}

// FeatureVector is a sparse row over a fitted vocabulary. Indices are ascending.
type FeatureVector struct {
	Dim     int
	Indices []int
	Values  []float64
}

// NNZ returns the number of stored entries
func (v FeatureVector) NNZ() int {
	return len(v.Indices)
}

// TfidfVectorizer turns processed text into L2-normalized tf-idf vectors.
// After Fit the vocabulary and idf weights never change, so Transform is
// safe to call from many goroutines.
type TfidfVectorizer struct {
	cfg        Config
	stopWords  map[string]struct{}
	vocabulary map[string]int
	terms      []string
	idf        []float64
}

// New creates an unfitted vectorizer
func New(cfg Config) (*TfidfVectorizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &TfidfVectorizer{
		cfg:       cfg,
		stopWords: stopSet(cfg.StopWords),
	}, nil
}

func stopSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// Config returns the configuration the vectorizer was built with
func (v *TfidfVectorizer) Config() Config {
	return v.cfg
}

// Fitted reports whether Fit has completed
func (v *TfidfVectorizer) Fitted() bool {
	return v.vocabulary != nil
}

// VocabularySize returns the number of feature dimensions
func (v *TfidfVectorizer) VocabularySize() int {
	return len(v.terms)
}

// Vocabulary returns the terms in index order
func (v *TfidfVectorizer) Vocabulary() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// IDF returns the inverse document frequency weight of a term
func (v *TfidfVectorizer) IDF(term string) (float64, bool) {
	idx, ok := v.vocabulary[term]
	if !ok {
		return 0, false
	}
	return v.idf[idx], true
}

// analyze splits a document into its n-gram terms
func (v *TfidfVectorizer) analyze(doc string) []string {
	var tokens []string
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(doc), -1) {
		if _, stop := v.stopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}

	var terms []string
	for n := v.cfg.NGramMin; n <= v.cfg.NGramMax; n++ {
		if n == 1 {
			terms = append(terms, tokens...)
			continue
		}
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// Fit learns the vocabulary and idf weights from docs and returns their vectors
func (v *TfidfVectorizer) Fit(docs []string) ([]FeatureVector, error) {
	if v.Fitted() {
		return nil, ErrAlreadyFitted
	}
	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}

	counts := make([]map[string]int, len(docs))
	docFreq := make(map[string]int)
	termFreq := make(map[string]int)
	for i, doc := range docs {
		c := make(map[string]int)
		for _, term := range v.analyze(doc) {
			c[term]++
		}
		for term, n := range c {
			docFreq[term]++
			termFreq[term] += n
		}
		counts[i] = c
	}

	maxDocCount := v.cfg.MaxDF * float64(len(docs))
	if maxDocCount < float64(v.cfg.MinDF) {
		return nil, fmt.Errorf("%w: max_df covers fewer documents than min_df", ErrInvalidConfig)
	}

	var kept []string
	for term, df := range docFreq {
		if df >= v.cfg.MinDF && float64(df) <= maxDocCount {
			kept = append(kept, term)
		}
	}
	if len(kept) == 0 {
		return nil, ErrEmptyVocabulary
	}

	if len(kept) > v.cfg.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if termFreq[kept[i]] != termFreq[kept[j]] {
				return termFreq[kept[i]] > termFreq[kept[j]]
			}
			return kept[i] < kept[j]
		})
		kept = kept[:v.cfg.MaxFeatures]
	}
	sort.Strings(kept)

	n := float64(len(docs))
	v.terms = kept
	v.vocabulary = make(map[string]int, len(kept))
	v.idf = make([]float64, len(kept))
	for i, term := range kept {
		v.vocabulary[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	matrix := make([]FeatureVector, len(docs))
	for i, c := range counts {
		matrix[i] = v.weigh(c)
	}
	return matrix, nil
}

// Transform maps a processed document into the fitted feature space
func (v *TfidfVectorizer) Transform(doc string) (FeatureVector, error) {
	if !v.Fitted() {
		return FeatureVector{}, ErrNotFitted
	}

	c := make(map[string]int)
	for _, term := range v.analyze(doc) {
		if _, ok := v.vocabulary[term]; ok {
			c[term]++
		}
	}
	return v.weigh(c), nil
}

func (v *TfidfVectorizer) weigh(counts map[string]int) FeatureVector {
	indices := make([]int, 0, len(counts))
	for term := range counts {
		if idx, ok := v.vocabulary[term]; ok {
			indices = append(indices, idx)
		}
	}
	sort.Ints(indices)

	values := make([]float64, len(indices))
	var norm float64
	for i, idx := range indices {
		values[i] = float64(counts[v.terms[idx]]) * v.idf[idx]
		norm += values[i] * values[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range values {
			values[i] /= norm
		}
	}

	return FeatureVector{Dim: len(v.terms), Indices: indices, Values: values}
}

type vectorizerState struct {
	Config Config    `json:"config"`
	Terms  []string  `json:"terms"`
	IDF    []float64 `json:"idf"`
}

// MarshalBinary encodes the fitted state as snappy-compressed JSON
func (v *TfidfVectorizer) MarshalBinary() ([]byte, error) {
	if !v.Fitted() {
		return nil, ErrNotFitted
	}
	data, err := json.Marshal(vectorizerState{Config: v.cfg, Terms: v.terms, IDF: v.idf})
	if err != nil {
		return nil, fmt.Errorf("failed to encode vectorizer: %w", err)
	}
	return snappy.Encode(nil, data), nil
}

// UnmarshalBinary restores a vectorizer written by MarshalBinary
func (v *TfidfVectorizer) UnmarshalBinary(blob []byte) error {
	data, err := snappy.Decode(nil, blob)
	if err != nil {
		return fmt.Errorf("failed to decompress vectorizer: %w", err)
	}

	var state vectorizerState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to decode vectorizer: %w", err)
	}
	if err := state.Config.Validate(); err != nil {
		return err
	}
	if len(state.Terms) == 0 || len(state.Terms) != len(state.IDF) {
		return fmt.Errorf("corrupt vectorizer: %d terms, %d idf weights", len(state.Terms), len(state.IDF))
	}

	v.cfg = state.Config
	v.stopWords = stopSet(state.Config.StopWords)
	v.terms = state.Terms
	v.idf = state.IDF
	v.vocabulary = make(map[string]int, len(state.Terms))
	for i, term := range state.Terms {
		v.vocabulary[term] = i
	}
	return nil
}
