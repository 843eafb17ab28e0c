package chi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/fusionrag/internal/domain"
	"github.com/kailas-cloud/fusionrag/internal/metrics"
	"github.com/kailas-cloud/fusionrag/internal/usecase/chat"
	"github.com/kailas-cloud/fusionrag/internal/usecase/health"
	"github.com/kailas-cloud/fusionrag/internal/usecase/retrieval"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Retriever runs the hybrid retrieval pipeline.
type Retriever interface {
	Retrieve(ctx context.Context, botID, query string, opts retrieval.Options) ([]domain.Candidate, error)
}

// Answerer answers a question with retrieved context.
type Answerer interface {
	Answer(ctx context.Context, botID, question string, history []domain.Message) (chat.Answer, error)
}

// HealthChecker reports aggregated component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// RetrieveRequest is the body of POST /v1/bots/{botID}/retrieve.
type RetrieveRequest struct {
	Query     string   `json:"query"`
	K         int      `json:"k,omitempty"`
	SourceIDs []string `json:"source_ids,omitempty"`
}

// RetrieveResponse is the result of a retrieval.
type RetrieveResponse struct {
	Results []domain.Candidate `json:"results"`
}

// ChatRequest is the body of POST /v1/bots/{botID}/chat.
type ChatRequest struct {
	Question string           `json:"question"`
	History  []domain.Message `json:"history,omitempty"`
}

// Server serves the HTTP API.
type Server struct {
	retriever Retriever
	answerer  Answerer
	health    HealthChecker
	logger    *zap.Logger
	apiKeys   []string
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAPIKeys enables Bearer authentication for the API routes.
func WithAPIKeys(keys []string) ServerOption {
	return func(s *Server) { s.apiKeys = keys }
}

// NewServer creates an HTTP API server.
func NewServer(retriever Retriever, answerer Answerer, health HealthChecker, logger *zap.Logger, opts ...ServerOption) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		retriever: retriever,
		answerer:  answerer,
		health:    health,
		logger:    logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler builds the chi router with the middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(Recoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(Tracing("fusionrag.http"))
	r.Use(RequestLogger(s.logger))
	r.Use(BearerAuthMiddleware(s.apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1/bots/{botID}", func(r chi.Router) {
		r.Post("/retrieve", s.Retrieve)
		r.Post("/chat", s.Chat)
	})
	return r
}

// Retrieve handles POST /v1/bots/{botID}/retrieve.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.K < 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "k must not be negative")
		return
	}

	results, err := s.retriever.Retrieve(r.Context(), chi.URLParam(r, "botID"), req.Query, retrieval.Options{
		K:         req.K,
		SourceIDs: req.SourceIDs,
	})
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if results == nil {
		results = []domain.Candidate{}
	}

	writeJSON(w, http.StatusOK, RetrieveResponse{Results: results})
}

// Chat handles POST /v1/bots/{botID}/chat.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeBody(w, r, &req) {
		return
	}

	answer, err := s.answerer.Answer(r.Context(), chi.URLParam(r, "botID"), req.Question, req.History)
	if err != nil {
		handleDomainError(w, r, err)
		return
	}
	if answer.SourceDocuments == nil {
		answer.SourceDocuments = []domain.Document{}
	}

	if answer.Cached {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
	}
	writeJSON(w, http.StatusOK, answer)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == health.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
