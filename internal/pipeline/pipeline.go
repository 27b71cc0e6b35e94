package pipeline

import (
	"errors"
	"fmt"

	"github.com/mikey/email-classifier/internal/classifier"
	"github.com/mikey/email-classifier/internal/core"
	"github.com/mikey/email-classifier/internal/utils"
	"github.com/mikey/email-classifier/internal/vectorizer"
)

// ErrIncomplete is returned when a pipeline is missing one of its parts
var ErrIncomplete = errors.New("pipeline is missing a fitted component")

// Pipeline bundles the fitted vectorizer and both label classifiers.
// It is built once and never mutated, so Predict needs no locking.
type Pipeline struct {
	vectorizer *vectorizer.TfidfVectorizer
	category   *classifier.MultinomialNB
	priority   *classifier.MultinomialNB
	metadata   *core.ModelMetadata
}

// New assembles a pipeline and checks that its parts agree
func New(
	vec *vectorizer.TfidfVectorizer,
	category *classifier.MultinomialNB,
	priority *classifier.MultinomialNB,
	metadata *core.ModelMetadata,
) (*Pipeline, error) {
	p := &Pipeline{
		vectorizer: vec,
		category:   category,
		priority:   priority,
		metadata:   metadata,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the artifacts were fitted together
func (p *Pipeline) Validate() error {
	if p.vectorizer == nil || p.category == nil || p.priority == nil || p.metadata == nil {
		return ErrIncomplete
	}
	if !p.vectorizer.Fitted() || !p.category.Fitted() || !p.priority.Fitted() {
		return ErrIncomplete
	}

	dim := p.vectorizer.VocabularySize()
	if n := p.category.NumFeatures(); n != dim {
		return fmt.Errorf("category classifier: %w", &classifier.DimensionMismatchError{Expected: dim, Got: n})
	}
	if n := p.priority.NumFeatures(); n != dim {
		return fmt.Errorf("priority classifier: %w", &classifier.DimensionMismatchError{Expected: dim, Got: n})
	}
	return nil
}

// Vectorizer returns the fitted vectorizer
func (p *Pipeline) Vectorizer() *vectorizer.TfidfVectorizer {
	return p.vectorizer
}

// Category returns the category classifier
func (p *Pipeline) Category() *classifier.MultinomialNB {
	return p.category
}

// Priority returns the priority classifier
func (p *Pipeline) Priority() *classifier.MultinomialNB {
	return p.priority
}

// Metadata returns the metadata record of the artifact set
func (p *Pipeline) Metadata() *core.ModelMetadata {
	return p.metadata
}

// Predict runs preprocessing, vectorization and both classifiers
func (p *Pipeline) Predict(subject, body string) (*core.PredictionResult, error) {
	features, err := p.vectorizer.Transform(utils.Preprocess(utils.CombineText(subject, body)))
	if err != nil {
		return nil, &core.PipelineError{Stage: "vectorize", Err: err}
	}

	category, categoryConf, err := p.category.Classify(features)
	if err != nil {
		return nil, &core.PipelineError{Stage: "category prediction", Err: err}
	}

	priority, priorityConf, err := p.priority.Classify(features)
	if err != nil {
		return nil, &core.PipelineError{Stage: "priority prediction", Err: err}
	}

	return &core.PredictionResult{
		Category:           category,
		Priority:           priority,
		CategoryConfidence: categoryConf,
		PriorityConfidence: priorityConf,
		ModelVersion:       p.metadata.Version(),
	}, nil
}
