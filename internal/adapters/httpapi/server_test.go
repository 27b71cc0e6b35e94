package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mikey/email-classifier/internal/config"
	"github.com/mikey/email-classifier/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeService struct {
	err      error
	metadata *core.ModelMetadata
}

func (f *fakeService) Classify(_ context.Context, req *core.ClassificationRequest) (*core.PredictionResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if req.Subject == "" && req.Body == "" {
		return nil, &core.InputError{Err: core.ErrEmptyEmail}
	}
	return &core.PredictionResult{
		Category:           "Work",
		Priority:           "High",
		CategoryConfidence: 0.5,
		PriorityConfidence: 0.75,
		ModelVersion:       req.Subject,
	}, nil
}

func (f *fakeService) ClassifyBatch(ctx context.Context, reqs []core.ClassificationRequest) ([]*core.PredictionResult, error) {
	if len(reqs) == 0 {
		return nil, &core.InputError{Err: core.ErrEmptyBatch}
	}
	results := make([]*core.PredictionResult, len(reqs))
	for i := range reqs {
		res, err := f.Classify(ctx, &core.ClassificationRequest{Subject: reqs[i].Subject, Body: "x"})
		if err != nil {
			return nil, err
		}
		results[i] = res
	}
	return results, nil
}

func (f *fakeService) Metadata() *core.ModelMetadata {
	return f.metadata
}

func newTestServer(svc *fakeService) http.Handler {
	return NewServer(svc, zap.NewNop(), config.ServerConfig{CORSOrigins: []string{"*"}}).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func testMetadata() *core.ModelMetadata {
	return &core.ModelMetadata{
		CreatedAt:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		CategoryModel: core.ModelInfo{Name: "MultinomialNB", Accuracy: 1, Classes: []string{"Work"}},
		PriorityModel: core.ModelInfo{Name: "MultinomialNB", Accuracy: 1, Classes: []string{"High"}},
		Vectorizer:    core.VectorizerInfo{MaxFeatures: 5000, VocabularySize: 332},
	}
}

func TestIndex(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{metadata: testMetadata()}), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeMap(t, rec)
	assert.Equal(t, "Email Classifier API", body["name"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.Equal(t, map[string]interface{}{
		"/health":         "GET - Health check",
		"/classify":       "POST - Classify single email",
		"/classify/batch": "POST - Classify multiple emails",
	}, body["endpoints"])
	info := body["model_info"].(map[string]interface{})
	assert.Equal(t, "2024-01-02T03:04:05Z", info["created_at"])
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{metadata: testMetadata()}), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeMap(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, true, body["models_loaded"])
	vec := body["metadata"].(map[string]interface{})["vectorizer"].(map[string]interface{})
	assert.EqualValues(t, 332, vec["vocabulary_size"])
}

func TestClassify(t *testing.T) {
	h := newTestServer(&fakeService{})

	rec := do(t, h, http.MethodPost, "/classify", `{"subject":"Server down","body":"help","sender":"a@b.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result core.PredictionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "Work", result.Category)
	assert.Equal(t, "High", result.Priority)
	assert.Equal(t, "Server down", result.ModelVersion)
	assert.NotContains(t, rec.Body.String(), "summary")
}

func TestClassifyBadRequests(t *testing.T) {
	h := newTestServer(&fakeService{})

	cases := []struct {
		name    string
		body    string
		message string
	}{
		{"empty body", "", "No JSON data provided"},
		{"invalid json", "{not json", "No JSON data provided"},
		{"null", "null", "No JSON data provided"},
		{"array", "[1,2]", "No JSON data provided"},
		{"empty fields", `{"subject":"","body":""}`, "Subject or body is required"},
		{"missing fields", `{"sender":"a@b.com"}`, "Subject or body is required"},
		{"non-string fields", `{"subject":42,"body":null}`, "Subject or body is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/classify", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.message, decodeMap(t, rec)["error"])
		})
	}
}

func TestClassifyNonStringFieldIgnored(t *testing.T) {
	rec := do(t, newTestServer(&fakeService{}), http.MethodPost, "/classify", `{"subject":["x"],"body":"meeting tomorrow"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", decodeMap(t, rec)["model_version"])
}

func TestClassifyPipelineError(t *testing.T) {
	svc := &fakeService{err: &core.PipelineError{Stage: "vectorize", Err: errors.New("bad dimension")}}
	rec := do(t, newTestServer(svc), http.MethodPost, "/classify", `{"subject":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "vectorize failed: bad dimension", decodeMap(t, rec)["error"])
}

func TestClassifyBatch(t *testing.T) {
	h := newTestServer(&fakeService{})

	rec := do(t, h, http.MethodPost, "/classify/batch", `{"emails":[{"subject":"one"},{"subject":"two"},{"subject":"three"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var out batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Results, 3)
	for i, want := range []string{"one", "two", "three"} {
		assert.Equal(t, want, out.Results[i].ModelVersion)
	}
}

func TestClassifyBatchBadRequests(t *testing.T) {
	h := newTestServer(&fakeService{})

	for _, body := range []string{`{"emails":[]}`, `{}`, `{"other":1}`} {
		rec := do(t, h, http.MethodPost, "/classify/batch", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, "No emails provided", decodeMap(t, rec)["error"], body)
	}

	rec := do(t, h, http.MethodPost, "/classify/batch", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No JSON data provided", decodeMap(t, rec)["error"])
}

func TestRoutingAndMiddleware(t *testing.T) {
	h := newTestServer(&fakeService{})

	rec := do(t, h, http.MethodGet, "/classify", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, rec.Header().Get(requestIDHeader), 26)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "caller-id")
	req.Header.Set("Origin", "http://example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "caller-id", rec.Header().Get(requestIDHeader))
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := newRequestID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}
