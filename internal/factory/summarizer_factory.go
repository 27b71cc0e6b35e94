package factory

import (
	"fmt"

	"github.com/mikey/email-classifier/internal/adapters/bedrock"
	"github.com/mikey/email-classifier/internal/adapters/gemini"
	"github.com/mikey/email-classifier/internal/adapters/openai"
	"github.com/mikey/email-classifier/internal/config"
	"github.com/mikey/email-classifier/internal/core"
	"github.com/mikey/email-classifier/internal/utils"
	"go.uber.org/zap"
)

// SummarizerFactory creates summary providers
type SummarizerFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewSummarizerFactory creates a new summarizer factory
func NewSummarizerFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *SummarizerFactory {
	return &SummarizerFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateSummarizer creates the configured summary provider. It returns
// nil when summaries are disabled.
func (f *SummarizerFactory) CreateSummarizer() (core.Summarizer, error) {
	provider := f.cfg.GetSummary().Provider

	switch provider {
	case "", "none":
		return nil, nil
	case "bedrock":
		client, err := bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
		if err != nil {
			return nil, err
		}
		return client, nil
	case "gemini":
		client, err := gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
		if err != nil {
			return nil, err
		}
		return client, nil
	case "openai":
		client, err := openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClient()
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported summary provider: %s", provider)
	}
}
