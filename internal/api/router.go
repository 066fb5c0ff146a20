// Package api provides the HTTP surface of charge-finder.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/chargewise/charge-finder/internal/observability"
)

// RouterConfig holds the knobs the router needs from the main config.
type RouterConfig struct {
	RequestTimeout time.Duration
}

// NewRouter creates the API router with all routes configured.
func NewRouter(logger *observability.Logger, h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	// Health check (unauthenticated)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"charge-finder"}`))
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/query", h.Query)
		r.Get("/stats", h.Stats)
		r.Get("/stations/{stationID}", h.Station)
	})

	return r
}

// requestLogger emits one structured line per request.
func requestLogger(logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Int("status", ww.Status()).
				Dur("duration", time.Since(started)).
				Msg("request handled")
		})
	}
}
