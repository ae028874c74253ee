package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/user/movie-planner-go/internal/store"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps a tool request body
const maxBodyBytes = 1 << 20

// Metrics for Prometheus
var (
	toolCallsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "movie_planner_tool_calls_total",
		Help: "Total number of tool calls",
	}, []string{"tool", "status"})

	toolDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "movie_planner_tool_duration_seconds",
		Help:    "Duration of tool calls in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"tool"})

	toolTimeoutsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "movie_planner_tool_timeouts_total",
		Help: "Total number of tool calls that hit the timeout",
	}, []string{"tool"})

	datasetRows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "movie_planner_dataset_rows",
		Help: "Rows loaded per dataset table",
	}, []string{"table"})

	datasetLoadSeconds = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "movie_planner_dataset_load_seconds",
		Help: "Time taken by the cold load of each dataset table",
	}, []string{"table"})
)

func init() {
	prometheus.MustRegister(toolCallsTotal)
	prometheus.MustRegister(toolDurationSeconds)
	prometheus.MustRegister(toolTimeoutsTotal)
	prometheus.MustRegister(datasetRows)
	prometheus.MustRegister(datasetLoadSeconds)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status  string         `json:"status"`
	Source  string         `json:"source"`
	Dataset map[string]int `json:"dataset"`
	Uptime  string         `json:"uptime"`
}

// ErrorResponse is the body of every failed tool call
type ErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields,omitempty"`
}

// Server exposes the toolbox over HTTP along with health and metrics
type Server struct {
	tools     *Toolbox
	store     *store.Store
	limiter   *rate.Limiter
	router    *http.ServeMux
	server    *http.Server
	startTime time.Time
}

// NewServer creates a new HTTP server instance. Tool calls beyond ratePerSec
// (with the given burst) are rejected with 429.
func NewServer(tools *Toolbox, st *store.Store, ratePerSec float64, burst int) *Server {
	s := &Server{
		tools:     tools,
		store:     st,
		limiter:   rate.NewLimiter(rate.Limit(ratePerSec), burst),
		router:    http.NewServeMux(),
		startTime: time.Now(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.Handle("GET /metrics", promhttp.Handler())
	s.router.HandleFunc("GET /tools", s.handleListTools)
	s.router.HandleFunc("POST /tools/{name}", s.handleCallTool)
}

// Handler returns the server's router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening on the specified port. Tool calls are bounded by the
// toolbox timeout, so the write timeout leaves room for it.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: s.tools.timeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Int("port", port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	log.Info().Msg("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

// handleHealth reports source connectivity, dataset row counts and uptime.
// A server without movies is degraded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sourceStatus := "healthy"
	if err := s.store.Ping(r.Context()); err != nil {
		sourceStatus = fmt.Sprintf("unhealthy: %v", err)
	}

	counts := s.store.Counts()

	status := "healthy"
	switch {
	case sourceStatus != "healthy":
		status = "unhealthy"
	case counts[store.TableMovies] == 0:
		status = "degraded"
	}

	response := HealthResponse{
		Status:  status,
		Source:  sourceStatus,
		Dataset: counts,
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, response)
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tools.Tools())
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !s.limiter.Allow() {
		label := name
		if !s.tools.Has(name) {
			label = statusUnknown
		}
		RecordToolCall(label, "rate_limited", 0)
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "failed to read request body"})
		return
	}

	result, err := s.tools.Call(r.Context(), name, body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeError maps a tool error to its HTTP status
func writeError(w http.ResponseWriter, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: verr.Error(), Fields: verr.Fields})
	case errors.Is(err, ErrBadParams):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrUnknownTool):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrToolTimeout):
		writeJSON(w, http.StatusGatewayTimeout, ErrorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

// RecordToolCall records a tool call metric
func RecordToolCall(tool, status string, took time.Duration) {
	toolCallsTotal.WithLabelValues(tool, status).Inc()
	if status == statusTimeout {
		toolTimeoutsTotal.WithLabelValues(tool).Inc()
	}
	if took > 0 {
		toolDurationSeconds.WithLabelValues(tool).Observe(took.Seconds())
	}
}

// RecordDatasetLoad records the outcome of a table's cold load. It matches store.LoadHook.
func RecordDatasetLoad(table string, rows int, took time.Duration) {
	datasetRows.WithLabelValues(table).Set(float64(rows))
	datasetLoadSeconds.WithLabelValues(table).Set(took.Seconds())
}
