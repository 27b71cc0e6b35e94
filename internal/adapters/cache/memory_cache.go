package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mikey/email-classifier/internal/core"
	"go.uber.org/zap"
)

// MemoryCache is a bounded in-memory prediction cache with per-entry TTL
type MemoryCache struct {
	lru    *expirable.LRU[string, *core.PredictionResult]
	logger *zap.Logger
}

// NewMemoryCache creates a cache holding at most size entries for ttl each
func NewMemoryCache(size int, ttl time.Duration, logger *zap.Logger) *MemoryCache {
	if size <= 0 {
		size = 1
	}
	onEvict := func(key string, _ *core.PredictionResult) {
		logger.Debug("Evicted cache entry", zap.Int("key_length", len(key)))
	}
	return &MemoryCache{
		lru:    expirable.NewLRU[string, *core.PredictionResult](size, onEvict, ttl),
		logger: logger,
	}
}

// Get retrieves a cached prediction
func (c *MemoryCache) Get(key string) (*core.PredictionResult, bool) {
	return c.lru.Get(key)
}

// Set stores a prediction
func (c *MemoryCache) Set(key string, result *core.PredictionResult) {
	c.lru.Add(key, result)
}

// Len returns the number of live entries
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

// Purge drops every entry
func (c *MemoryCache) Purge() {
	c.lru.Purge()
}
