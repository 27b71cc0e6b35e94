package factory

import (
	"github.com/mikey/email-classifier/internal/utils"
	"go.uber.org/zap"
)

// TextProcessorFactory builds the processor the summary clients share to
// cap email bodies at their provider's max_body_size before prompting
type TextProcessorFactory struct {
	logger *zap.Logger
}

// NewTextProcessorFactory creates a TextProcessorFactory
func NewTextProcessorFactory(logger *zap.Logger) *TextProcessorFactory {
	return &TextProcessorFactory{
		logger: logger.Named("summary-prompt"),
	}
}

// CreateTextProcessor returns a processor that truncates and UTF-8 sanitizes
// summary prompt bodies. It is independent of the classifier's Preprocess.
func (f *TextProcessorFactory) CreateTextProcessor() *utils.TextProcessor {
	return utils.NewTextProcessor(f.logger)
}
