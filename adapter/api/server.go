// Package api provides the HTTP API for session scheduling.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/cadence/pkg/observability"
)

// Server is the HTTP API server.
type Server struct {
	mux      *http.ServeMux
	server   *http.Server
	logger   *slog.Logger
	sessions *SessionHandler
	health   *observability.HealthRegistry
	metrics  *observability.PrometheusMetrics
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new API server. health and metrics may be nil.
func NewServer(cfg ServerConfig, sessions *SessionHandler, health *observability.HealthRegistry, metrics *observability.PrometheusMetrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		sessions: sessions,
		health:   health,
		metrics:  metrics,
	}
	s.registerRoutes()

	var m observability.Metrics = observability.NoopMetrics{}
	if metrics != nil {
		m = metrics
	}

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      withRequestID(withLogging(logger, withMetrics(m, s.mux))),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// registerRoutes sets up the API routes.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	// Sessions API v1
	s.mux.HandleFunc("POST /api/v1/sessions", s.sessions.CreateSession)
	s.mux.HandleFunc("GET /api/v1/sessions", s.sessions.ListSessions)
	s.mux.HandleFunc("GET /api/v1/sessions/{id}", s.sessions.GetSession)
	s.mux.HandleFunc("PATCH /api/v1/sessions/{id}", s.sessions.UpdateSession)
	s.mux.HandleFunc("DELETE /api/v1/sessions/{id}", s.sessions.DeleteSession)
	s.mux.HandleFunc("POST /api/v1/sessions/{id}/cancel", s.sessions.CancelSession)

	// Availability
	s.mux.HandleFunc("GET /api/v1/slots", s.sessions.BookedSlots)
	s.mux.HandleFunc("GET /api/v1/slots.ics", s.sessions.BookedSlotsCalendar)
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// handleHealth reports component health. Unhealthy components turn the
// response into a 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": string(observability.HealthStatusHealthy),
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	result := s.health.Check(r.Context())
	status := http.StatusOK
	if result.Status == observability.HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, result)
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}
