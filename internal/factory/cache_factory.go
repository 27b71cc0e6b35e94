package factory

import (
	"fmt"

	"github.com/mikey/email-classifier/internal/adapters/cache"
	"github.com/mikey/email-classifier/internal/config"
	"github.com/mikey/email-classifier/internal/core"
	"go.uber.org/zap"
)

// CacheFactory creates prediction caches based on configuration
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreatePredictionCache creates the prediction cache, or returns nil when
// caching is disabled
func (f *CacheFactory) CreatePredictionCache() (core.PredictionCache, error) {
	cacheCfg, err := f.cfg.GetCache()
	if err != nil {
		return nil, fmt.Errorf("invalid cache settings: %w", err)
	}
	if !cacheCfg.Enabled {
		return nil, nil
	}
	if cacheCfg.Size <= 0 {
		return nil, fmt.Errorf("cache.size must be positive, got %d", cacheCfg.Size)
	}

	f.logger.Info("Prediction cache enabled",
		zap.Int("size", cacheCfg.Size),
		zap.Duration("ttl", cacheCfg.TTL))
	return cache.NewMemoryCache(cacheCfg.Size, cacheCfg.TTL, f.logger), nil
}
