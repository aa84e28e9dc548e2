// Package http exposes a workflow definition over a small JSON API routed
// with chi.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/internal/logging"
	"github.com/aretw0/stepflow/internal/presentation/graph"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/observability"
	"github.com/aretw0/stepflow/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// maxBodyBytes bounds POST /executions payloads.
const maxBodyBytes = 1 << 20

// ExecuteRequest is the body of POST /executions.
type ExecuteRequest struct {
	Input           map[string]any `json:"input"`
	DeadlineSeconds float64        `json:"deadline_seconds,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server serves one definition through an Executor.
type Server struct {
	executor ports.Executor
	def      *domain.Definition
	logger   *slog.Logger
	metrics  *observability.Metrics
	gatherer prometheus.Gatherer
	streams  *StreamManager
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records request metrics on m and serves g on /metrics.
func WithMetrics(m *observability.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// NewServer creates a server executing def.
func NewServer(executor ports.Executor, def *domain.Definition, opts ...Option) *Server {
	s := &Server{
		executor: executor,
		def:      def,
		logger:   logging.NewNop(),
		streams:  NewStreamManager(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Streams returns the broadcaster used by GET /events.
func (s *Server) Streams() *StreamManager {
	return s.streams
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}

	r.Route("/executions", func(r chi.Router) {
		r.Post("/", s.Execute)
		r.Get("/", s.ListExecutions)
		r.Get("/{id}", s.GetExecution)
	})
	r.Get("/definition", s.GetDefinition)
	r.Get("/graph", s.GetGraph)
	r.Get("/events", s.SubscribeEvents)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", observability.Handler(s.gatherer))
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Execute handles POST /executions. The run outcome is always reported in
// the body with 200; only malformed requests are rejected.
func (s *Server) Execute(w http.ResponseWriter, r *http.Request) {
	var body ExecuteRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		s.logger.Warn("Execute: invalid request body", "error", err)
		return
	}
	if body.DeadlineSeconds < 0 {
		s.writeError(w, http.StatusBadRequest, "deadline_seconds must not be negative")
		return
	}

	deadline := time.Duration(body.DeadlineSeconds * float64(time.Second))
	result := s.executor.Execute(r.Context(), s.def, body.Input, deadline)
	s.logger.Info("execution finished", "execution_id", result.ID, "status", result.Status)

	if data, err := json.Marshal(result); err == nil {
		s.streams.Broadcast(string(data))
	}
	s.writeJSON(w, http.StatusOK, result)
}

// ListExecutions handles GET /executions.
func (s *Server) ListExecutions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.executor.Results(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to list executions")
		s.logger.Error("ListExecutions failed", "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"executions": ids})
}

// GetExecution handles GET /executions/{id}.
func (s *Server) GetExecution(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := s.executor.Result(r.Context(), id)
	if errors.Is(err, domain.ErrResultNotFound) {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("execution %q not found", id))
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to load execution")
		s.logger.Error("GetExecution failed", "execution_id", id, "error", err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// GetDefinition handles GET /definition.
func (s *Server) GetDefinition(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.def)
}

// GetGraph handles GET /graph. With ?execution=<id> the diagram highlights
// the states that run visited.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	var overlay *graph.GraphOverlay
	if id := r.URL.Query().Get("execution"); id != "" {
		result, err := s.executor.Result(r.Context(), id)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, domain.ErrResultNotFound) {
				status = http.StatusNotFound
			}
			s.writeError(w, status, fmt.Sprintf("execution %q: %v", id, err))
			return
		}
		overlay = graph.OverlayFor(result)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, graph.GenerateMermaid(s.def, overlay)); err != nil {
		s.logger.Error("GetGraph write failed", "error", err)
	}
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Info is the body of GET /info.
type Info struct {
	App          string   `json:"app"`
	Version      string   `json:"version"`
	Workflow     string   `json:"workflow"`
	Capabilities []string `json:"capabilities"`
}

// GetInfo handles GET /info. Capabilities are listed when the executor
// exposes them.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	info := Info{
		App:          "stepflow-http",
		Version:      strings.TrimSpace(stepflow.Version),
		Workflow:     s.def.Name,
		Capabilities: []string{},
	}
	if c, ok := s.executor.(interface{ Capabilities() []string }); ok {
		info.Capabilities = c.Capabilities()
	}
	s.writeJSON(w, http.StatusOK, info)
}

// SubscribeEvents handles GET /events, streaming each finished execution as
// a server-sent event.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: execution\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}
