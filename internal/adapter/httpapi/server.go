// Package httpapi exposes health, metrics, and read-only index results over
// HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/reai-pipeline/internal/pipeline"
)

// ResultProvider hands out the most recent completed run. Latest returns nil
// before the first run finishes.
type ResultProvider interface {
	Latest() *pipeline.RunOutput
	CheckReadiness(ctx context.Context) error
}

// Server exposes health, readiness, metrics, and the rankings API.
type Server struct {
	httpServer *http.Server
	provider   ResultProvider
	logger     *slog.Logger
}

// NewServer creates the HTTP server and its routes.
func NewServer(addr string, provider ResultProvider, logger *slog.Logger) *Server {
	s := &Server{
		provider: provider,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/rankings", s.handleRankings)
		r.Get("/rankings/{fips}", s.handleRanking)
		r.Get("/sensitivity", s.handleSensitivity)
		r.Get("/summary", s.handleSummary)
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.provider.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// latest fetches the current run or writes a 503 and returns nil.
func (s *Server) latest(w http.ResponseWriter) *pipeline.RunOutput {
	out := s.provider.Latest()
	if out == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "no completed run yet",
		})
		return nil
	}
	return out
}

func (s *Server) handleRankings(w http.ResponseWriter, _ *http.Request) {
	out := s.latest(w)
	if out == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":       out.RunID,
		"config":       out.Baseline.Config,
		"generated_at": out.Baseline.GeneratedAt,
		"results":      out.Baseline.Results,
	})
}

func (s *Server) handleRanking(w http.ResponseWriter, r *http.Request) {
	out := s.latest(w)
	if out == nil {
		return
	}
	fips := chi.URLParam(r, "fips")
	for _, res := range out.Baseline.Results {
		if res.FIPS == fips {
			writeJSON(w, http.StatusOK, res)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "unknown county fips " + fips,
	})
}

func (s *Server) handleSensitivity(w http.ResponseWriter, _ *http.Request) {
	out := s.latest(w)
	if out == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":       out.RunID,
		"correlations": out.Sensitivity.Correlations,
		"counties":     out.Sensitivity.Counties,
		"generated_at": out.Sensitivity.GeneratedAt,
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	out := s.latest(w)
	if out == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":     out.RunID,
		"config":     out.Baseline.Config,
		"summary":    out.Summary,
		"degenerate": degenerate(out),
	})
}

// degenerate lists zero-variance variables from the run, never nil so the
// JSON field is always an array.
func degenerate(out *pipeline.RunOutput) []string {
	vars := out.Normalized.DegenerateVariables()
	if vars == nil {
		vars = []string{}
	}
	return vars
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
