package factory

import (
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mikey/email-classifier/internal/adapters/cache"
	"github.com/mikey/email-classifier/internal/adapters/filter"
	"github.com/mikey/email-classifier/internal/adapters/store"
	"github.com/mikey/email-classifier/internal/config"
	"github.com/mikey/email-classifier/internal/core"
	"github.com/mikey/email-classifier/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newConfig() *config.Config {
	return config.NewFromViper(config.NewEmptyViper())
}

func TestStoreFactory(t *testing.T) {
	dir := t.TempDir()
	cfg := newConfig()

	cfg.Set("registry.type", "file")
	cfg.Set("registry.models_dir", filepath.Join(dir, "models"))
	s, err := NewStoreFactory(cfg, zap.NewNop()).CreateArtifactStore()
	require.NoError(t, err)
	assert.IsType(t, &store.FileStore{}, s)
	require.NoError(t, s.Close())

	cfg.Set("registry.type", "sqlite")
	cfg.Set("registry.sqlite_path", filepath.Join(dir, "db", "artifacts.db"))
	s, err = NewStoreFactory(cfg, zap.NewNop()).CreateArtifactStore()
	require.NoError(t, err)
	assert.IsType(t, &store.SQLiteStore{}, s)
	require.NoError(t, s.Close())

	cfg.Set("registry.type", "s3")
	_, err = NewStoreFactory(cfg, zap.NewNop()).CreateArtifactStore()
	assert.EqualError(t, err, "unsupported registry type: s3")
}

func TestCacheFactory(t *testing.T) {
	cfg := newConfig()

	c, err := NewCacheFactory(cfg, zap.NewNop()).CreatePredictionCache()
	require.NoError(t, err)
	assert.Nil(t, c)

	cfg.Set("cache.enabled", true)
	cfg.Set("cache.size", 10)
	c, err = NewCacheFactory(cfg, zap.NewNop()).CreatePredictionCache()
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryCache{}, c)

	cfg.Set("cache.size", 0)
	_, err = NewCacheFactory(cfg, zap.NewNop()).CreatePredictionCache()
	assert.Error(t, err)

	cfg.Set("cache.size", 10)
	cfg.Set("cache.ttl", "soon")
	_, err = NewCacheFactory(cfg, zap.NewNop()).CreatePredictionCache()
	assert.Error(t, err)
}

func TestSummarizerFactory(t *testing.T) {
	cfg := newConfig()
	tp := utils.NewTextProcessor(zap.NewNop())

	s, err := NewSummarizerFactory(cfg, zap.NewNop(), tp).CreateSummarizer()
	require.NoError(t, err)
	assert.Nil(t, s)

	cfg.Set("summary.provider", "openai")
	_, err = NewSummarizerFactory(cfg, zap.NewNop(), tp).CreateSummarizer()
	assert.Error(t, err, "missing api key")

	cfg.Set("openai.api_key", "sk-test")
	s, err = NewSummarizerFactory(cfg, zap.NewNop(), tp).CreateSummarizer()
	require.NoError(t, err)
	assert.NotNil(t, s)

	cfg.Set("summary.provider", "gemini")
	_, err = NewSummarizerFactory(cfg, zap.NewNop(), tp).CreateSummarizer()
	assert.Error(t, err, "missing api key")

	cfg.Set("summary.provider", "carrier-pigeon")
	_, err = NewSummarizerFactory(cfg, zap.NewNop(), tp).CreateSummarizer()
	assert.EqualError(t, err, "unsupported summary provider: carrier-pigeon")
}

func TestTrainerFactory(t *testing.T) {
	cfg := newConfig()
	f := NewTrainerFactory(cfg, zap.NewNop())

	opts, err := f.Options()
	require.NoError(t, err)
	assert.Equal(t, int64(42), opts.Seed)
	assert.Equal(t, 0.2, opts.TestSize)
	assert.Equal(t, 1.0, opts.Alpha)
	assert.Equal(t, 1000, opts.Vectorizer.MaxFeatures)
	assert.Len(t, opts.Vectorizer.StopWords, 318)

	trainer, err := f.CreateTrainer(nil)
	require.NoError(t, err)
	assert.NotNil(t, trainer)

	cfg.Set("training.test_size", 1.5)
	_, err = f.Options()
	assert.Error(t, err)

	cfg.Set("training.test_size", 0.2)
	cfg.Set("training.alpha", 0)
	_, err = f.Options()
	assert.Error(t, err)
}

func TestFilterFactory(t *testing.T) {
	cfg := newConfig()
	svc := core.NewClassifierService(nil, nil, nil, zap.NewNop(), 1)
	f := NewFilterFactory(cfg, zap.NewNop(), svc)

	smtpFilter, err := f.CreateEmailFilter("smtp")
	require.NoError(t, err)
	assert.IsType(t, &filter.SMTPFilter{}, smtpFilter)

	cliFilter, err := f.CreateEmailFilter("cli")
	require.NoError(t, err)
	assert.IsType(t, &filter.CliFilter{}, cliFilter)

	_, err = f.CreateEmailFilter("milter")
	assert.Error(t, err)
}

func TestTextProcessorFactory(t *testing.T) {
	tp := NewTextProcessorFactory(zap.NewNop()).CreateTextProcessor()
	require.NotNil(t, tp)
	assert.Equal(t, "abc", tp.ProcessText("abc", 10))

	// a cut inside a multi-byte rune must still yield valid UTF-8
	out := tp.ProcessText("Order shipped ✓ with tracking", 15)
	assert.True(t, utf8.ValidString(out))
	assert.True(t, strings.HasPrefix(out, "Order shipped "))
}
