package pipeline_test

import (
	"context"
	"sync"
	"testing"

	"github.com/mikey/email-classifier/internal/classifier"
	"github.com/mikey/email-classifier/internal/core"
	"github.com/mikey/email-classifier/internal/pipeline"
	"github.com/mikey/email-classifier/internal/training"
	"github.com/mikey/email-classifier/internal/vectorizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func trainedPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	p, _, err := training.NewTrainer(training.DefaultOptions(), nil, zap.NewNop()).Train(context.Background())
	require.NoError(t, err)
	return p
}

func TestPredictScenarios(t *testing.T) {
	p := trainedPipeline(t)

	cases := []struct {
		subject, body      string
		category, priority string
	}{
		{"URGENT: Server Down", "Production server is down. Need immediate attention.", "Work", "High"},
		{"50% OFF Sale!", "Limited time offer on all items!", "Promotions", "Low"},
		{"Your package has shipped", "Order #123 is on the way", "Shopping", "Medium"},
	}
	for _, tc := range cases {
		t.Run(tc.subject, func(t *testing.T) {
			res, err := p.Predict(tc.subject, tc.body)
			require.NoError(t, err)
			assert.Equal(t, tc.category, res.Category)
			assert.Equal(t, tc.priority, res.Priority)
			assert.Equal(t, p.Metadata().Version(), res.ModelVersion)
		})
	}
}

func TestPredictBoundsAndMembership(t *testing.T) {
	p := trainedPipeline(t)
	categories := p.Category().Classes()
	priorities := p.Priority().Classes()

	for _, in := range [][2]string{
		{"", ""},
		{"qwerty", "zxcvb asdf"},
		{"Invoice #12345", "see http://pay.example.com or mail billing@example.com"},
		{"<html><body>Weekly Newsletter</body></html>", ""},
	} {
		res, err := p.Predict(in[0], in[1])
		require.NoError(t, err)
		assert.Contains(t, categories, res.Category)
		assert.Contains(t, priorities, res.Priority)
		assert.True(t, res.CategoryConfidence >= 0 && res.CategoryConfidence <= 1)
		assert.True(t, res.PriorityConfidence >= 0 && res.PriorityConfidence <= 1)
	}
}

func TestPredictDeterministicAndConcurrent(t *testing.T) {
	p := trainedPipeline(t)
	want, err := p.Predict("Payment Reminder", "your payment is due")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*core.PredictionResult, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = p.Predict("Payment Reminder", "your payment is due")
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestNewValidates(t *testing.T) {
	p := trainedPipeline(t)

	_, err := pipeline.New(nil, p.Category(), p.Priority(), p.Metadata())
	assert.ErrorIs(t, err, pipeline.ErrIncomplete)

	small, err := vectorizer.New(vectorizer.DefaultConfig())
	require.NoError(t, err)
	_, err = small.Fit([]string{"alpha beta", "alpha beta", "gamma"})
	require.NoError(t, err)

	_, err = pipeline.New(small, p.Category(), p.Priority(), p.Metadata())
	assert.ErrorIs(t, err, classifier.ErrDimensionMismatch)
}
