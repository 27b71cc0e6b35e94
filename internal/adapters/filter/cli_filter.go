package filter

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mikey/email-classifier/internal/core"
	"go.uber.org/zap"
)

// CliFilter prints a classification report for one message
type CliFilter struct {
	service Classifier
	logger  *zap.Logger
	out     io.Writer
	verbose bool
}

// NewCliFilter creates a new CLI filter writing its report to out
func NewCliFilter(service Classifier, logger *zap.Logger, out io.Writer, verbose bool) *CliFilter {
	return &CliFilter{
		service: service,
		logger:  logger,
		out:     out,
		verbose: verbose,
	}
}

// ProcessEmail classifies an email and prints the report
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.PredictionResult, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.From))

	fmt.Fprintf(f.out, "\n=== Email ===\n")
	fmt.Fprintf(f.out, "From: %s\n", email.From)
	fmt.Fprintf(f.out, "To: %s\n", strings.Join(email.To, ", "))
	fmt.Fprintf(f.out, "Subject: %s\n", email.Subject)
	fmt.Fprintf(f.out, "Body length: %d bytes\n", len(email.Body))

	if f.verbose {
		preview := []rune(email.Body)
		if len(preview) > 500 {
			preview = append(preview[:500], []rune("...")...)
		}
		fmt.Fprintf(f.out, "\nBody preview:\n%s\n", string(preview))
	}

	start := time.Now()
	result, err := f.service.Classify(ctx, requestFromEmail(email))
	if err != nil {
		f.logger.Error("Failed to classify email", zap.Error(err))
		fmt.Fprintf(f.out, "\nError: %v\n", err)
		return nil, err
	}

	fmt.Fprintf(f.out, "\n=== Classification ===\n")
	fmt.Fprintf(f.out, "Category: %s (%.4f)\n", result.Category, result.CategoryConfidence)
	fmt.Fprintf(f.out, "Priority: %s (%.4f)\n", result.Priority, result.PriorityConfidence)
	fmt.Fprintf(f.out, "Model version: %s\n", result.ModelVersion)
	if result.Summary != "" {
		fmt.Fprintf(f.out, "Summary: %s\n", result.Summary)
	}
	fmt.Fprintf(f.out, "Processing time: %v\n", time.Since(start))

	return result, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}
