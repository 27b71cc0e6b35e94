package ports

import (
	"context"

	"github.com/mikey/email-classifier/internal/core"
)

// EmailFilter defines the interface for mail intake adapters
type EmailFilter interface {
	// ProcessEmail classifies an email and returns the result
	ProcessEmail(ctx context.Context, email *core.Email) (*core.PredictionResult, error)

	// Start starts the email filter service
	Start() error

	// Stop stops the email filter service
	Stop() error
}
