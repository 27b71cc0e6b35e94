package core

import (
	"context"
)

// Predictor is a loaded, read-only inference pipeline
type Predictor interface {
	// Predict classifies an email by subject and body
	Predict(subject, body string) (*PredictionResult, error)

	// Metadata returns the metadata record of the loaded artifacts
	Metadata() *ModelMetadata
}

// Summarizer produces a short human-readable summary of an email
type Summarizer interface {
	// Summarize returns a one or two sentence summary
	Summarize(ctx context.Context, email *Email) (string, error)
}

// PredictionCache stores results keyed by normalized email text
type PredictionCache interface {
	// Get returns a cached result if one is present
	Get(key string) (*PredictionResult, bool)

	// Set stores a result
	Set(key string, result *PredictionResult)

	// Len returns the number of live entries
	Len() int
}
