package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"grunnlag/internal/grunnlag/handler"
	"grunnlag/internal/platform/metrics"
	"grunnlag/pkg/platform/httputil"
	"grunnlag/pkg/platform/middleware/auth"
	"grunnlag/pkg/platform/middleware/request"
	"grunnlag/pkg/platform/middleware/requesttime"
)

// healthCheck reports whether one dependency is reachable.
type healthCheck func(ctx context.Context) error

func newRouter(h *handler.Handler, validator *auth.Validator, httpMetrics *metrics.HTTP, checks map[string]healthCheck, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requesttime.Middleware)
	r.Use(httpMetrics.Instrument)

	r.Get("/health", healthHandler(checks))
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(validator, log))
		h.Register(r)
	})
	return r
}

func healthHandler(checks map[string]healthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body[name] = err.Error()
				continue
			}
			body[name] = "ok"
		}
		httputil.WriteJSON(w, status, body)
	}
}
