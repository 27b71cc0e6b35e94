package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mikey/email-classifier/internal/adapters/store"
	"github.com/mikey/email-classifier/internal/config"
	"github.com/mikey/email-classifier/internal/ports"
	"go.uber.org/zap"
)

// StoreFactory creates artifact stores based on configuration
type StoreFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.Config, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateArtifactStore creates the store selected by registry.type
func (f *StoreFactory) CreateArtifactStore() (ports.ArtifactStore, error) {
	reg := f.cfg.GetRegistry()

	switch reg.Type {
	case "file":
		return store.NewFileStore(reg.ModelsDir, f.logger)
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(reg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return store.NewSQLiteStore(reg.SQLitePath, f.logger)
	case "mysql":
		return store.NewMySQLStore(reg.MySQLDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported registry type: %s", reg.Type)
	}
}
