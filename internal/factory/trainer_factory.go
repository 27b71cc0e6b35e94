package factory

import (
	"fmt"

	"github.com/mikey/email-classifier/internal/config"
	"github.com/mikey/email-classifier/internal/training"
	"go.uber.org/zap"
)

// TrainerFactory creates training runs from configuration
type TrainerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewTrainerFactory creates a new trainer factory
func NewTrainerFactory(cfg *config.Config, logger *zap.Logger) *TrainerFactory {
	return &TrainerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// Options returns the training options from configuration
func (f *TrainerFactory) Options() (training.Options, error) {
	vec, err := f.cfg.GetVectorizer()
	if err != nil {
		return training.Options{}, err
	}

	t := f.cfg.GetTraining()
	if t.TestSize <= 0 || t.TestSize >= 1 {
		return training.Options{}, fmt.Errorf("training.test_size must be in (0, 1), got %v", t.TestSize)
	}
	if t.Alpha <= 0 {
		return training.Options{}, fmt.Errorf("training.alpha must be positive, got %v", t.Alpha)
	}

	return training.Options{
		Seed:       t.Seed,
		TestSize:   t.TestSize,
		Alpha:      t.Alpha,
		Vectorizer: vec,
	}, nil
}

// CreateTrainer creates a trainer that persists through saver
func (f *TrainerFactory) CreateTrainer(saver training.ArtifactSaver) (*training.Trainer, error) {
	opts, err := f.Options()
	if err != nil {
		return nil, err
	}
	return training.NewTrainer(opts, saver, f.logger), nil
}
