package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/mikey/email-classifier/internal/classifier"
	"github.com/mikey/email-classifier/internal/core"
	"github.com/mikey/email-classifier/internal/pipeline"
	"github.com/mikey/email-classifier/internal/ports"
	"github.com/mikey/email-classifier/internal/vectorizer"
	"go.uber.org/zap"
)

// Artifact names. All four are written and read as one set.
const (
	CategoryArtifact   = "category_classifier.bin"
	PriorityArtifact   = "priority_classifier.bin"
	VectorizerArtifact = "tfidf_vectorizer.bin"
	MetadataArtifact   = "model_metadata.json"
)

// ErrArtifactsMissing is returned by Load when any artifact is absent
var ErrArtifactsMissing = errors.New("model artifacts missing")

// Artifacts lists every artifact name in the set
func Artifacts() []string {
	return []string{CategoryArtifact, PriorityArtifact, VectorizerArtifact, MetadataArtifact}
}

// Registry saves and loads fitted pipelines through an ArtifactStore
type Registry struct {
	store  ports.ArtifactStore
	logger *zap.Logger
}

// New creates a registry over store
func New(store ports.ArtifactStore, logger *zap.Logger) *Registry {
	return &Registry{store: store, logger: logger}
}

// Save serializes the pipeline and writes all four artifacts together
func (r *Registry) Save(ctx context.Context, p *pipeline.Pipeline) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid pipeline: %w", err)
	}

	vec, err := p.Vectorizer().MarshalBinary()
	if err != nil {
		return err
	}
	category, err := p.Category().MarshalBinary()
	if err != nil {
		return err
	}
	priority, err := p.Priority().MarshalBinary()
	if err != nil {
		return err
	}
	metadata, err := json.MarshalIndent(p.Metadata(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	artifacts := map[string][]byte{
		CategoryArtifact:   category,
		PriorityArtifact:   priority,
		VectorizerArtifact: vec,
		MetadataArtifact:   metadata,
	}
	if err := r.store.WriteAll(ctx, artifacts); err != nil {
		return fmt.Errorf("failed to write artifacts: %w", err)
	}

	for _, name := range Artifacts() {
		r.logger.Info("Saved artifact",
			zap.String("name", name),
			zap.String("size", humanize.Bytes(uint64(len(artifacts[name])))))
	}
	return nil
}

// Load reads all four artifacts and assembles a validated pipeline
func (r *Registry) Load(ctx context.Context) (*pipeline.Pipeline, error) {
	blobs := make(map[string][]byte, 4)
	var missing []string
	for _, name := range Artifacts() {
		data, err := r.store.Read(ctx, name)
		if err != nil {
			if errors.Is(err, ports.ErrArtifactNotFound) {
				missing = append(missing, name)
				continue
			}
			return nil, err
		}
		blobs[name] = data
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrArtifactsMissing, missing)
	}

	vec := &vectorizer.TfidfVectorizer{}
	if err := vec.UnmarshalBinary(blobs[VectorizerArtifact]); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", VectorizerArtifact, err)
	}
	category := &classifier.MultinomialNB{}
	if err := category.UnmarshalBinary(blobs[CategoryArtifact]); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", CategoryArtifact, err)
	}
	priority := &classifier.MultinomialNB{}
	if err := priority.UnmarshalBinary(blobs[PriorityArtifact]); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", PriorityArtifact, err)
	}
	var metadata core.ModelMetadata
	if err := json.Unmarshal(blobs[MetadataArtifact], &metadata); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", MetadataArtifact, err)
	}

	p, err := pipeline.New(vec, category, priority, &metadata)
	if err != nil {
		return nil, fmt.Errorf("loaded artifacts do not match: %w", err)
	}

	r.logger.Info("Models loaded successfully",
		zap.Strings("category_classes", category.Classes()),
		zap.Strings("priority_classes", priority.Classes()),
		zap.Int("vocabulary_size", vec.VocabularySize()),
		zap.String("model_version", metadata.Version()))
	return p, nil
}
