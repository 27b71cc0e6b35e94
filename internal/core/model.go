package core

import (
	"time"
)

// Email represents an email message
type Email struct {
	From    string
	To      []string
	Subject string
	Body    string
	Headers map[string][]string
}

// ClassificationRequest is a single email submitted for classification.
// Missing fields decode to empty strings.
type ClassificationRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	Sender  string `json:"sender"`
}

// PredictionResult represents the outcome of classifying one email
type PredictionResult struct {
	Category           string  `json:"category"`
	Priority           string  `json:"priority"`
	CategoryConfidence float64 `json:"category_confidence"`
	PriorityConfidence float64 `json:"priority_confidence"`
	ModelVersion       string  `json:"model_version"`
	Summary            string  `json:"summary,omitempty"`
}

// ModelInfo describes one fitted classifier
type ModelInfo struct {
	Name     string   `json:"name"`
	Accuracy float64  `json:"accuracy"`
	Classes  []string `json:"classes"`
}

// VectorizerInfo describes the fitted vectorizer
type VectorizerInfo struct {
	MaxFeatures    int `json:"max_features"`
	VocabularySize int `json:"vocabulary_size"`
}

// ModelMetadata is the record persisted alongside the fitted artifacts
type ModelMetadata struct {
	CreatedAt     time.Time      `json:"created_at"`
	CategoryModel ModelInfo      `json:"category_model"`
	PriorityModel ModelInfo      `json:"priority_model"`
	Vectorizer    VectorizerInfo `json:"vectorizer"`
}

// Version identifies the artifact set a prediction came from
func (m *ModelMetadata) Version() string {
	if m == nil || m.CreatedAt.IsZero() {
		return "unknown"
	}
	return m.CreatedAt.Format(time.RFC3339Nano)
}
