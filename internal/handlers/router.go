package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jwebster45206/worldstate-engine/internal/logger"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Health   *HealthHandler
	Signals  *SignalsHandler
	Validate *ValidateHandler
	Balance  *BalanceHandler
	Jobs     *JobsHandler
	Stream   *StreamHandler
}

// NewRouter builds the API routes.
func NewRouter(h Handlers, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(log))

	r.Handle("/health", h.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/indicators/{signal}", h.Signals.Indicator)
			r.Get("/world-state", h.Signals.WorldState)
			r.Get("/tokens", h.Signals.Tokens)
			r.Method(http.MethodPost, "/validate", h.Validate)
			r.Method(http.MethodPost, "/jobs", h.Jobs)
			r.Method(http.MethodGet, "/events", h.Stream)
		})
		r.Method(http.MethodGet, "/balance", h.Balance)
	})

	return r
}

// RequestLogger logs one line per request with its chi request id.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.WithRequestID(log, middleware.GetReqID(r.Context())).Info("HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds())
		})
	}
}
