package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePredictor struct {
	calls atomic.Int32
	fail  error
}

func (f *fakePredictor) Predict(subject, body string) (*PredictionResult, error) {
	f.calls.Add(1)
	if f.fail != nil {
		return nil, &PipelineError{Stage: "vectorize", Err: f.fail}
	}
	return &PredictionResult{
		Category:           "Work",
		Priority:           "High",
		CategoryConfidence: 0.9,
		PriorityConfidence: 0.8,
		ModelVersion:       subject + "|" + body,
	}, nil
}

func (f *fakePredictor) Metadata() *ModelMetadata {
	return &ModelMetadata{CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
}

type mapCache struct {
	mu sync.Mutex
	m  map[string]*PredictionResult
}

func (c *mapCache) Get(key string) (*PredictionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.m[key]
	return r, ok
}

func (c *mapCache) Set(key string, r *PredictionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = r
}

func (c *mapCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

type stubSummarizer struct {
	summary string
	err     error
}

func (s stubSummarizer) Summarize(context.Context, *Email) (string, error) {
	return s.summary, s.err
}

func TestClassifyEmptyInput(t *testing.T) {
	pred := &fakePredictor{}
	svc := NewClassifierService(pred, nil, nil, zap.NewNop(), 4)

	_, err := svc.Classify(context.Background(), &ClassificationRequest{Sender: "a@b.c"})
	require.Error(t, err)
	assert.True(t, IsInputError(err))
	assert.ErrorIs(t, err, ErrEmptyEmail)
	assert.Equal(t, int32(0), pred.calls.Load())

	_, err = svc.Classify(context.Background(), nil)
	assert.True(t, IsInputError(err))
}

func TestClassify(t *testing.T) {
	svc := NewClassifierService(&fakePredictor{}, nil, nil, zap.NewNop(), 4)

	res, err := svc.Classify(context.Background(), &ClassificationRequest{Subject: "s"})
	require.NoError(t, err)
	assert.Equal(t, "Work", res.Category)
	assert.Equal(t, "s|", res.ModelVersion)
	assert.Empty(t, res.Summary)
}

func TestClassifyPipelineError(t *testing.T) {
	svc := NewClassifierService(&fakePredictor{fail: errors.New("bad dims")}, nil, nil, zap.NewNop(), 4)

	_, err := svc.Classify(context.Background(), &ClassificationRequest{Body: "b"})
	require.Error(t, err)
	assert.False(t, IsInputError(err))

	var pe *PipelineError
	assert.ErrorAs(t, err, &pe)
}

func TestClassifyBatchOrder(t *testing.T) {
	svc := NewClassifierService(&fakePredictor{}, nil, nil, zap.NewNop(), 3)

	reqs := make([]ClassificationRequest, 25)
	for i := range reqs {
		reqs[i] = ClassificationRequest{Subject: fmt.Sprintf("s%d", i)}
	}
	// items are not validated individually
	reqs[7] = ClassificationRequest{}

	results, err := svc.ClassifyBatch(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, len(reqs))
	for i, r := range results {
		assert.Equal(t, reqs[i].Subject+"|", r.ModelVersion)
	}
}

func TestClassifyBatchErrors(t *testing.T) {
	svc := NewClassifierService(&fakePredictor{}, nil, nil, zap.NewNop(), 2)
	_, err := svc.ClassifyBatch(context.Background(), nil)
	assert.True(t, IsInputError(err))
	assert.ErrorIs(t, err, ErrEmptyBatch)

	svc = NewClassifierService(&fakePredictor{fail: errors.New("boom")}, nil, nil, zap.NewNop(), 2)
	_, err = svc.ClassifyBatch(context.Background(), []ClassificationRequest{{Subject: "a"}, {Subject: "b"}})
	require.Error(t, err)
	assert.False(t, IsInputError(err))
}

func TestClassifyUsesCache(t *testing.T) {
	pred := &fakePredictor{}
	cache := &mapCache{m: make(map[string]*PredictionResult)}
	svc := NewClassifierService(pred, cache, nil, zap.NewNop(), 2)

	first, err := svc.Classify(context.Background(), &ClassificationRequest{Subject: "Hello", Body: "World"})
	require.NoError(t, err)
	// same normalized text
	second, err := svc.Classify(context.Background(), &ClassificationRequest{Subject: "hello ", Body: " WORLD"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), pred.calls.Load())
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, first, second)

	second.Category = "mutated"
	third, err := svc.Classify(context.Background(), &ClassificationRequest{Subject: "Hello", Body: "World"})
	require.NoError(t, err)
	assert.Equal(t, "Work", third.Category)
}

func TestClassifySummary(t *testing.T) {
	svc := NewClassifierService(&fakePredictor{}, nil, stubSummarizer{summary: "A short summary."}, zap.NewNop(), 2)
	res, err := svc.Classify(context.Background(), &ClassificationRequest{Subject: "s", Body: "b"})
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", res.Summary)

	svc = NewClassifierService(&fakePredictor{}, nil, stubSummarizer{err: errors.New("quota")}, zap.NewNop(), 2)
	res, err = svc.Classify(context.Background(), &ClassificationRequest{
		Subject: "Invoice",
		Body:    "Please pay",
		Sender:  "Billing Team <billing@example.com>",
	})
	require.NoError(t, err)
	assert.Equal(t, "Email from Billing Team about: Invoice. Please pay", res.Summary)
}

func TestFallbackSummaryTruncates(t *testing.T) {
	s := FallbackSummary(&Email{From: "x@y.z", Subject: "s", Body: strings.Repeat("a", 200)})
	assert.True(t, strings.HasSuffix(s, strings.Repeat("a", 150)+"..."))
}

func TestMetadataVersion(t *testing.T) {
	svc := NewClassifierService(&fakePredictor{}, nil, nil, zap.NewNop(), 0)
	assert.Equal(t, "2024-01-02T03:04:05Z", svc.Metadata().Version())

	var nilMeta *ModelMetadata
	assert.Equal(t, "unknown", nilMeta.Version())
}
