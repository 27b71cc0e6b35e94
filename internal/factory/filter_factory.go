package factory

import (
	"fmt"
	"os"

	"github.com/mikey/email-classifier/internal/adapters/filter"
	"github.com/mikey/email-classifier/internal/config"
	"github.com/mikey/email-classifier/internal/core"
	"github.com/mikey/email-classifier/internal/ports"
	"go.uber.org/zap"
)

// FilterFactory creates mail intake filters
type FilterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.ClassifierService
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, service *core.ClassifierService) *FilterFactory {
	return &FilterFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}
}

// CreateEmailFilter creates a filter of the given type: "smtp" or "cli"
func (f *FilterFactory) CreateEmailFilter(filterType string) (ports.EmailFilter, error) {
	switch filterType {
	case "smtp":
		return filter.NewSMTPFilter(f.service, f.logger, f.cfg.GetSMTP()), nil
	case "cli":
		return filter.NewCliFilter(f.service, f.logger, os.Stdout, f.cfg.GetBool("cli.verbose")), nil
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}
