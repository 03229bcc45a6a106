// Package server assembles the HTTP and WebSocket API over the stored
// evaluation data.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmeltzer/linesight/internal/domain"
	"github.com/dmeltzer/linesight/internal/server/handler"
	"github.com/dmeltzer/linesight/internal/server/middleware"
	"github.com/dmeltzer/linesight/internal/server/ws"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
	RateLimit   int    // requests per window per client; zero disables
	RateWindow  time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health          *handler.HealthHandler
	Status          *handler.StatusHandler
	Recommendations *handler.RecommendationHandler
	Arb             *handler.ArbHandler
	Runs            *handler.RunHandler
	Summary         *handler.SummaryHandler
	Pipeline        *handler.PipelineHandler
}

// Server is the headless HTTP + WebSocket API server.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux.
// It wires up middleware (CORS, logging, auth, rate limiting) and attaches
// the WebSocket hub. A nil limiter disables per-client throttling.
func NewServer(cfg Config, handlers Handlers, wsHub *ws.Hub, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// --- Register routes ---

	// Health check (no auth required).
	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	// Pipeline status.
	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)

	// Recommendation endpoints.
	mux.HandleFunc("GET /api/recommendations", handlers.Recommendations.List)
	mux.HandleFunc("GET /api/recommendations/{id}", handlers.Recommendations.Get)

	// Arbitrage endpoints.
	mux.HandleFunc("GET /api/arbitrage", handlers.Arb.List)

	// Evaluation run endpoints.
	mux.HandleFunc("GET /api/runs", handlers.Runs.List)
	mux.HandleFunc("GET /api/runs/{id}", handlers.Runs.Get)

	// Settlement endpoints.
	mux.HandleFunc("GET /api/summary", handlers.Summary.GetSummary)
	mux.HandleFunc("GET /api/settlements", handlers.Summary.ListSettlements)

	// Pipeline trigger endpoint.
	mux.HandleFunc("POST /api/pipeline/run", handlers.Pipeline.TriggerRun)

	// WebSocket endpoint.
	if wsHub != nil {
		mux.HandleFunc("GET /ws", wsHub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux

	// Per-client rate limiting (skips if no limiter or zero limit).
	if limiter != nil && cfg.RateLimit > 0 {
		h = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow)(h)
	}

	// Apply auth middleware (skips if APIKey is empty).
	h = middleware.Auth(cfg.APIKey)(h)

	// Apply request logging middleware.
	h = middleware.Logging(logger)(h)

	// Apply CORS middleware.
	h = middleware.CORS(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
