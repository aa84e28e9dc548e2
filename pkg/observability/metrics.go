package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Histogram bucket definitions.
var (
	taskDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
	httpDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
)

// Metrics holds the Prometheus instruments of the engine and its transports.
type Metrics struct {
	StateVisitsTotal    *prometheus.CounterVec
	TaskDuration        *prometheus.HistogramVec
	TaskErrorsTotal     *prometheus.CounterVec
	ExecutionsTotal     *prometheus.CounterVec
	ExecutionDuration   *prometheus.HistogramVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// InitMetrics creates and registers all instruments on reg.
func InitMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StateVisitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stepflow_state_visits_total",
			Help: "Total number of state visits.",
		}, []string{"state"}),
		TaskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stepflow_task_duration_seconds",
			Help:    "Duration of task capability calls in seconds.",
			Buckets: taskDurationBuckets,
		}, []string{"resource"}),
		TaskErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stepflow_task_errors_total",
			Help: "Total number of task calls that failed or were abandoned.",
		}, []string{"resource"}),
		ExecutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stepflow_executions_total",
			Help: "Total number of finished executions by outcome.",
		}, []string{"workflow", "status"}),
		ExecutionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stepflow_execution_duration_seconds",
			Help:    "Wall-clock duration of executions in seconds.",
			Buckets: taskDurationBuckets,
		}, []string{"workflow"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stepflow_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stepflow_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "path_pattern"}),
	}

	reg.MustRegister(
		m.StateVisitsTotal,
		m.TaskDuration,
		m.TaskErrorsTotal,
		m.ExecutionsTotal,
		m.ExecutionDuration,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}

// Hooks returns lifecycle hooks feeding the state and task instruments.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(_ context.Context, e *domain.StateEvent) {
			m.StateVisitsTotal.WithLabelValues(e.StateID).Inc()
		},
		OnTaskReturn: func(_ context.Context, e *domain.TaskEvent) {
			m.TaskDuration.WithLabelValues(e.Resource).Observe(e.Duration.Seconds())
			if e.IsError {
				m.TaskErrorsTotal.WithLabelValues(e.Resource).Inc()
			}
		},
	}
}

// ObserveResult records a finished execution.
func (m *Metrics) ObserveResult(result domain.ExecutionResult) {
	m.ExecutionsTotal.WithLabelValues(result.Workflow, string(result.Status)).Inc()
	m.ExecutionDuration.WithLabelValues(result.Workflow).Observe(result.Duration().Seconds())
}

// RecordHTTPRequest records an HTTP request.
func (m *Metrics) RecordHTTPRequest(method, pathPattern string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(duration.Seconds())
}

// --- HTTP Middleware ---

// Middleware records request metrics using chi's route pattern rather than the
// raw URL path, keeping label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		m.RecordHTTPRequest(r.Method, routePattern(r), sw.status, time.Since(start))
	})
}

// Handler returns the Prometheus HTTP handler serving metrics from g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// routePattern extracts chi's route pattern from the request context.
// Falls back to the raw URL path if no pattern is found.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return r.URL.Path
	}
	pattern := rctx.RoutePattern()
	if pattern == "" {
		return r.URL.Path
	}
	return pattern
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status  int
	written bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.written {
		w.status = code
		w.written = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}
