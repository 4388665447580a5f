// Package requesttime captures one "now" per request so every fact, audit
// event and log line produced while serving it carries the same timestamp.
package requesttime

import (
	"net/http"
	"time"

	"grunnlag/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
