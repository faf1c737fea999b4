package middleware

import (
	"context"
	"net/http"
	"time"
)

// Detach runs next on a context that ignores cancellation of the request
// context, so neither a client disconnect nor server shutdown aborts work
// already in flight. Values are kept and the work is bounded by timeout.
func Detach(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
