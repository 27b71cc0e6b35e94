package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mikey/email-classifier/internal/config"
	"github.com/mikey/email-classifier/internal/core"
	"go.uber.org/zap"
)

const (
	serviceName    = "Email Classifier API"
	serviceVersion = "1.0.0"

	maxRequestBytes = 10 << 20
)

// Service is the part of the classifier service exposed over HTTP
type Service interface {
	Classify(ctx context.Context, req *core.ClassificationRequest) (*core.PredictionResult, error)
	ClassifyBatch(ctx context.Context, reqs []core.ClassificationRequest) ([]*core.PredictionResult, error)
	Metadata() *core.ModelMetadata
}

// Server is the HTTP gateway in front of the classifier service
type Server struct {
	service    Service
	logger     *zap.Logger
	cfg        config.ServerConfig
	httpServer *http.Server
}

// NewServer creates a new HTTP gateway
func NewServer(service Service, logger *zap.Logger, cfg config.ServerConfig) *Server {
	return &Server{
		service: service,
		logger:  logger,
		cfg:     cfg,
	}
}

// Handler returns the routed handler with CORS, request IDs and access logs
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/classify", s.handleClassify).Methods(http.MethodPost)
	r.HandleFunc("/classify/batch", s.handleClassifyBatch).Methods(http.MethodPost)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", requestIDHeader}),
		handlers.ExposedHeaders([]string{requestIDHeader}),
	)

	return withRequestID(accessLog(s.logger, cors(r)))
}

// Start binds the listen address and serves in the background
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddress, err)
	}

	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.logger.Info("HTTP server starting", zap.String("address", listener.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop gracefully shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

type indexResponse struct {
	Name      string              `json:"name"`
	Version   string              `json:"version"`
	Endpoints map[string]string   `json:"endpoints"`
	ModelInfo *core.ModelMetadata `json:"model_info"`
}

type healthResponse struct {
	Status       string              `json:"status"`
	ModelsLoaded bool                `json:"models_loaded"`
	Metadata     *core.ModelMetadata `json:"metadata"`
}

type batchRequest struct {
	Emails []requestPayload `json:"emails"`
}

type batchResponse struct {
	Results []*core.PredictionResult `json:"results"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// requestPayload accepts any JSON type per field; non-strings read as empty
type requestPayload struct {
	Subject interface{} `json:"subject"`
	Body    interface{} `json:"body"`
	Sender  interface{} `json:"sender"`
}

func (p requestPayload) request() core.ClassificationRequest {
	return core.ClassificationRequest{
		Subject: stringValue(p.Subject),
		Body:    stringValue(p.Body),
		Sender:  stringValue(p.Sender),
	}
}

func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, indexResponse{
		Name:    serviceName,
		Version: serviceVersion,
		Endpoints: map[string]string{
			"/health":         "GET - Health check",
			"/classify":       "POST - Classify single email",
			"/classify/batch": "POST - Classify multiple emails",
		},
		ModelInfo: s.service.Metadata(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       "healthy",
		ModelsLoaded: true,
		Metadata:     s.service.Metadata(),
	})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var payload *requestPayload
	if err := decodeBody(w, r, &payload); err != nil || payload == nil {
		writeError(w, http.StatusBadRequest, "No JSON data provided")
		return
	}

	req := payload.request()
	result, err := s.service.Classify(r.Context(), &req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleClassifyBatch(w http.ResponseWriter, r *http.Request) {
	var payload *batchRequest
	if err := decodeBody(w, r, &payload); err != nil || payload == nil {
		writeError(w, http.StatusBadRequest, "No JSON data provided")
		return
	}

	reqs := make([]core.ClassificationRequest, len(payload.Emails))
	for i, e := range payload.Emails {
		reqs[i] = e.request()
	}

	results, err := s.service.ClassifyBatch(r.Context(), reqs)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: results})
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrEmptyEmail):
		writeError(w, http.StatusBadRequest, "Subject or body is required")
	case errors.Is(err, core.ErrEmptyBatch):
		writeError(w, http.StatusBadRequest, "No emails provided")
	case core.IsInputError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("Classification failed",
			zap.Error(err),
			zap.String("request_id", RequestID(r.Context())),
			zap.String("path", r.URL.Path))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("trailing data after JSON payload")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
