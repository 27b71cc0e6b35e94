package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mikey/email-classifier/internal/pipeline"
	"go.uber.org/zap"
)

// Trainer produces and saves a fresh artifact set
type Trainer interface {
	Run(ctx context.Context) error
}

// FatalStartupError means serving cannot start without a loaded model set
type FatalStartupError struct {
	Err error
}

func (e *FatalStartupError) Error() string {
	return fmt.Sprintf("fatal startup error: %v", e.Err)
}

func (e *FatalStartupError) Unwrap() error {
	return e.Err
}

// Bootstrapper loads the model set, training it once if it is missing.
// Concurrent callers share a single bootstrap.
type Bootstrapper struct {
	registry *Registry
	trainer  Trainer
	logger   *zap.Logger

	mu     sync.Mutex
	loaded *pipeline.Pipeline
}

// NewBootstrapper creates a bootstrapper
func NewBootstrapper(registry *Registry, trainer Trainer, logger *zap.Logger) *Bootstrapper {
	return &Bootstrapper{
		registry: registry,
		trainer:  trainer,
		logger:   logger,
	}
}

// Ensure returns the loaded pipeline
func (b *Bootstrapper) Ensure(ctx context.Context) (*pipeline.Pipeline, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.loaded != nil {
		return b.loaded, nil
	}

	p, err := b.registry.Load(ctx)
	if err == nil {
		b.loaded = p
		return p, nil
	}
	if !errors.Is(err, ErrArtifactsMissing) {
		return nil, &FatalStartupError{Err: err}
	}

	b.logger.Warn("Model files missing, running training", zap.Error(err))
	if err := b.trainer.Run(ctx); err != nil {
		return nil, &FatalStartupError{Err: err}
	}

	p, err = b.registry.Load(ctx)
	if err != nil {
		return nil, &FatalStartupError{Err: err}
	}
	b.loaded = p
	return p, nil
}
