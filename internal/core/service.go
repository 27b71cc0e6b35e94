package core

import (
	"context"
	"time"

	"github.com/mikey/email-classifier/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ClassifierService is the core service for email classification
type ClassifierService struct {
	predictor    Predictor
	cache        PredictionCache
	summarizer   Summarizer
	logger       *zap.Logger
	batchWorkers int
}

// NewClassifierService creates a new classifier service.
// cache and summarizer may be nil.
func NewClassifierService(
	predictor Predictor,
	cache PredictionCache,
	summarizer Summarizer,
	logger *zap.Logger,
	batchWorkers int,
) *ClassifierService {
	if batchWorkers <= 0 {
		batchWorkers = 1
	}
	return &ClassifierService{
		predictor:    predictor,
		cache:        cache,
		summarizer:   summarizer,
		logger:       logger,
		batchWorkers: batchWorkers,
	}
}

// Metadata returns the metadata of the loaded model artifacts
func (s *ClassifierService) Metadata() *ModelMetadata {
	return s.predictor.Metadata()
}

// Classify predicts category and priority for a single email
func (s *ClassifierService) Classify(ctx context.Context, req *ClassificationRequest) (*PredictionResult, error) {
	if req == nil || (req.Subject == "" && req.Body == "") {
		return nil, &InputError{Err: ErrEmptyEmail}
	}

	start := time.Now()
	result, err := s.predict(req)
	if err != nil {
		s.logger.Error("Failed to classify email",
			zap.Error(err),
			zap.String("sender", req.Sender))
		return nil, err
	}

	if s.summarizer != nil {
		result.Summary = s.summarize(ctx, req)
	}

	s.logger.Debug("Classified email",
		zap.String("sender", req.Sender),
		zap.String("category", result.Category),
		zap.String("priority", result.Priority),
		zap.Float64("category_confidence", result.CategoryConfidence),
		zap.Float64("priority_confidence", result.PriorityConfidence),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// ClassifyBatch classifies every email independently and returns results
// in input order. Items are not validated individually.
func (s *ClassifierService) ClassifyBatch(ctx context.Context, reqs []ClassificationRequest) ([]*PredictionResult, error) {
	if len(reqs) == 0 {
		return nil, &InputError{Err: ErrEmptyBatch}
	}

	results := make([]*PredictionResult, len(reqs))
	g := new(errgroup.Group)
	g.SetLimit(s.batchWorkers)
	for i := range reqs {
		i := i
		g.Go(func() error {
			res, err := s.predict(&reqs[i])
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Error("Failed to classify batch", zap.Error(err), zap.Int("size", len(reqs)))
		return nil, err
	}

	s.logger.Debug("Classified batch", zap.Int("size", len(reqs)))
	return results, nil
}

func (s *ClassifierService) predict(req *ClassificationRequest) (*PredictionResult, error) {
	var key string
	if s.cache != nil {
		key = utils.Preprocess(utils.CombineText(req.Subject, req.Body))
		if cached, ok := s.cache.Get(key); ok {
			res := *cached
			return &res, nil
		}
	}

	result, err := s.predictor.Predict(req.Subject, req.Body)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		stored := *result
		s.cache.Set(key, &stored)
	}
	return result, nil
}

func (s *ClassifierService) summarize(ctx context.Context, req *ClassificationRequest) string {
	email := &Email{From: req.Sender, Subject: req.Subject, Body: req.Body}

	summary, err := s.summarizer.Summarize(ctx, email)
	if err != nil || summary == "" {
		s.logger.Warn("Summary provider failed, using fallback summary",
			zap.Error(err),
			zap.String("sender", req.Sender))
		return FallbackSummary(email)
	}
	return summary
}
