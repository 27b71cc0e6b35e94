package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	server, err := cfg.GetServer()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:5000", server.ListenAddress)
	assert.Equal(t, 4, server.BatchWorkers)
	assert.Equal(t, 10*time.Second, server.ShutdownTimeout)

	assert.Equal(t, "file", cfg.GetRegistry().Type)
	assert.Equal(t, int64(42), cfg.GetTraining().Seed)

	vec, err := cfg.GetVectorizer()
	require.NoError(t, err)
	assert.Equal(t, 1000, vec.MaxFeatures)
	assert.Equal(t, 2, vec.NGramMax)
	assert.InDelta(t, 0.8, vec.MaxDF, 1e-12)
	assert.Len(t, vec.StopWords, 318)

	cache, err := cfg.GetCache()
	require.NoError(t, err)
	assert.False(t, cache.Enabled)
	assert.Equal(t, time.Hour, cache.TTL)

	assert.Equal(t, "none", cfg.GetSummary().Provider)
	assert.Equal(t, "X-Email-Category", cfg.GetSMTP().Headers.Category)
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()
	stop := filepath.Join(dir, "stop.yaml")
	require.NoError(t, os.WriteFile(stop, []byte("terms: [newsletter]\n"), 0o644))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  batch_workers: 8
registry:
  type: sqlite
vectorizer:
  max_features: 500
  stop_words_file: `+stop+`
cache:
  enabled: true
  ttl: 5m
`), 0o644))

	cfg, err := NewFromFile(path)
	require.NoError(t, err)

	server, err := cfg.GetServer()
	require.NoError(t, err)
	assert.Equal(t, 8, server.BatchWorkers)
	assert.Equal(t, "sqlite", cfg.GetRegistry().Type)

	vec, err := cfg.GetVectorizer()
	require.NoError(t, err)
	assert.Equal(t, 500, vec.MaxFeatures)
	assert.Contains(t, vec.StopWords, "newsletter")

	cache, err := cfg.GetCache()
	require.NoError(t, err)
	assert.True(t, cache.Enabled)
	assert.Equal(t, 5*time.Minute, cache.TTL)
}

func TestNewFromMissingFile(t *testing.T) {
	_, err := NewFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestInvalidValues(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())
	cfg.Set("cache.ttl", "soon")
	_, err := cfg.GetCache()
	assert.Error(t, err)

	cfg.Set("vectorizer.max_df", 2.0)
	_, err = cfg.GetVectorizer()
	assert.Error(t, err)
}
