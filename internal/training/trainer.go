package training

import (
	"context"
	"fmt"
	"time"

	"github.com/mikey/email-classifier/internal/classifier"
	"github.com/mikey/email-classifier/internal/core"
	"github.com/mikey/email-classifier/internal/pipeline"
	"github.com/mikey/email-classifier/internal/utils"
	"github.com/mikey/email-classifier/internal/vectorizer"
	"go.uber.org/zap"
)

// TrainingError reports which step of a training run failed
type TrainingError struct {
	Step string
	Err  error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("training failed at %s: %v", e.Step, e.Err)
}

func (e *TrainingError) Unwrap() error {
	return e.Err
}

// ArtifactSaver persists a fitted pipeline as one unit
type ArtifactSaver interface {
	Save(ctx context.Context, p *pipeline.Pipeline) error
}

// Options controls a training run
type Options struct {
	Seed       int64
	TestSize   float64
	Alpha      float64
	Vectorizer vectorizer.Config
}

// DefaultOptions returns the settings used for the shipped models
func DefaultOptions() Options {
	return Options{
		Seed:       DefaultSeed,
		TestSize:   0.2,
		Alpha:      1.0,
		Vectorizer: vectorizer.DefaultConfig(),
	}
}

// SmokeResult is the prediction for one SmokeCase
type SmokeResult struct {
	Case   SmokeCase
	Result *core.PredictionResult
}

// Matches reports whether both labels were predicted as expected
func (r SmokeResult) Matches() bool {
	return r.Result.Category == r.Case.ExpectedCategory && r.Result.Priority == r.Case.ExpectedPriority
}

// Report describes a finished training run
type Report struct {
	Samples          int
	CategoryTrainIdx []int
	CategoryTestIdx  []int
	PriorityTrainIdx []int
	PriorityTestIdx  []int
	Category         Evaluation
	Priority         Evaluation
	Smoke            []SmokeResult
}

// Trainer builds the fitted pipeline from the synthetic corpus
type Trainer struct {
	opts   Options
	saver  ArtifactSaver
	logger *zap.Logger
	now    func() time.Time
}

// NewTrainer creates a trainer. saver may be nil to skip persistence.
func NewTrainer(opts Options, saver ArtifactSaver, logger *zap.Logger) *Trainer {
	return &Trainer{
		opts:   opts,
		saver:  saver,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run trains and saves the models. Nothing is persisted on failure.
func (t *Trainer) Run(ctx context.Context) error {
	_, _, err := t.Train(ctx)
	return err
}

// Train runs the full training procedure and returns the fitted pipeline
func (t *Trainer) Train(ctx context.Context) (*pipeline.Pipeline, *Report, error) {
	start := t.now()
	t.logger.Info("Starting model training", zap.Int64("seed", t.opts.Seed))

	samples := BuildCorpus()
	if len(samples) == 0 {
		return nil, nil, &TrainingError{Step: "corpus", Err: fmt.Errorf("empty corpus")}
	}
	t.logger.Info("Created training dataset",
		zap.Int("samples", len(samples)),
		zap.Any("categories", labelCounts(samples, func(s EmailSample) string { return s.Category })))

	docs := make([]string, len(samples))
	categories := make([]string, len(samples))
	priorities := make([]string, len(samples))
	for i, s := range samples {
		docs[i] = utils.Preprocess(s.Text())
		categories[i] = s.Category
		priorities[i] = s.Priority
	}

	// The vocabulary is fitted on every sample before splitting, so held-out
	// accuracy is measured against a vocabulary that has seen the test rows.
	vec, err := vectorizer.New(t.opts.Vectorizer)
	if err != nil {
		return nil, nil, &TrainingError{Step: "vectorizer", Err: err}
	}
	matrix, err := vec.Fit(docs)
	if err != nil {
		return nil, nil, &TrainingError{Step: "vectorizer", Err: err}
	}
	t.logger.Info("Extracted TF-IDF features",
		zap.Int("rows", len(matrix)),
		zap.Int("vocabulary_size", vec.VocabularySize()))

	report := &Report{Samples: len(samples)}

	category, catEval, catTrain, catTest, err := t.fitLabel(matrix, categories)
	if err != nil {
		return nil, nil, &TrainingError{Step: "category classifier", Err: err}
	}
	report.Category, report.CategoryTrainIdx, report.CategoryTestIdx = catEval, catTrain, catTest
	t.logEvaluation("category", catEval, len(catTrain), len(catTest))

	priority, priEval, priTrain, priTest, err := t.fitLabel(matrix, priorities)
	if err != nil {
		return nil, nil, &TrainingError{Step: "priority classifier", Err: err}
	}
	report.Priority, report.PriorityTrainIdx, report.PriorityTestIdx = priEval, priTrain, priTest
	t.logEvaluation("priority", priEval, len(priTrain), len(priTest))

	metadata := &core.ModelMetadata{
		CreatedAt: t.now(),
		CategoryModel: core.ModelInfo{
			Name:     classifier.ModelName,
			Accuracy: catEval.Accuracy,
			Classes:  category.Classes(),
		},
		PriorityModel: core.ModelInfo{
			Name:     classifier.ModelName,
			Accuracy: priEval.Accuracy,
			Classes:  priority.Classes(),
		},
		Vectorizer: core.VectorizerInfo{
			MaxFeatures:    t.opts.Vectorizer.MaxFeatures,
			VocabularySize: vec.VocabularySize(),
		},
	}

	p, err := pipeline.New(vec, category, priority, metadata)
	if err != nil {
		return nil, nil, &TrainingError{Step: "assemble", Err: err}
	}

	if t.saver != nil {
		if err := t.saver.Save(ctx, p); err != nil {
			return nil, nil, &TrainingError{Step: "save", Err: err}
		}
		t.logger.Info("Saved model artifacts")
	}

	report.Smoke = t.smokeTest(p)

	t.logger.Info("Training completed successfully",
		zap.Duration("elapsed", t.now().Sub(start)),
		zap.String("model_version", metadata.Version()))
	return p, report, nil
}

func (t *Trainer) fitLabel(matrix []vectorizer.FeatureVector, labels []string) (*classifier.MultinomialNB, Evaluation, []int, []int, error) {
	trainIdx, testIdx, err := StratifiedSplit(labels, t.opts.TestSize, t.opts.Seed)
	if err != nil {
		return nil, Evaluation{}, nil, nil, err
	}

	model, err := classifier.NewMultinomialNB(t.opts.Alpha)
	if err != nil {
		return nil, Evaluation{}, nil, nil, err
	}
	if err := model.Fit(pick(matrix, trainIdx), pick(labels, trainIdx)); err != nil {
		return nil, Evaluation{}, nil, nil, err
	}

	expected := pick(labels, testIdx)
	predicted := make([]string, len(testIdx))
	for i, idx := range testIdx {
		label, err := model.Predict(matrix[idx])
		if err != nil {
			return nil, Evaluation{}, nil, nil, err
		}
		predicted[i] = label
	}

	return model, Evaluate(expected, predicted), trainIdx, testIdx, nil
}

func (t *Trainer) smokeTest(p *pipeline.Pipeline) []SmokeResult {
	var results []SmokeResult
	for _, c := range SmokeCases() {
		res, err := p.Predict(c.Subject, c.Body)
		if err != nil {
			t.logger.Warn("Smoke test prediction failed", zap.String("subject", c.Subject), zap.Error(err))
			continue
		}
		sr := SmokeResult{Case: c, Result: res}
		results = append(results, sr)

		fields := []zap.Field{
			zap.String("subject", c.Subject),
			zap.String("category", res.Category),
			zap.String("priority", res.Priority),
			zap.Float64("category_confidence", res.CategoryConfidence),
			zap.Float64("priority_confidence", res.PriorityConfidence),
		}
		if sr.Matches() {
			t.logger.Info("Smoke test", fields...)
		} else {
			t.logger.Warn("Smoke test mismatch", append(fields,
				zap.String("expected_category", c.ExpectedCategory),
				zap.String("expected_priority", c.ExpectedPriority))...)
		}
	}
	return results
}

func (t *Trainer) logEvaluation(name string, eval Evaluation, train, test int) {
	t.logger.Info("Trained classifier",
		zap.String("model", name),
		zap.Int("train_samples", train),
		zap.Int("test_samples", test),
		zap.Float64("accuracy", eval.Accuracy))
	for _, c := range eval.Classes {
		t.logger.Debug("Class report",
			zap.String("model", name),
			zap.String("label", c.Label),
			zap.Float64("precision", c.Precision),
			zap.Float64("recall", c.Recall),
			zap.Float64("f1", c.F1),
			zap.Int("support", c.Support))
	}
}

func pick[T any](xs []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = xs[j]
	}
	return out
}

func labelCounts(samples []EmailSample, label func(EmailSample) string) map[string]int {
	counts := make(map[string]int)
	for _, s := range samples {
		counts[label(s)]++
	}
	return counts
}
