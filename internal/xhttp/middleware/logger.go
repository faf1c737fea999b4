package middleware

import (
	"log/slog"
	"net/http"

	"github.com/garrettladley/csverify/internal/xcontext"
	"github.com/garrettladley/csverify/internal/xslog"
)

// Logger stores base, tagged with the request ID, in the request context.
// Must run after RequestID.
func Logger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := base
			if id, ok := xcontext.GetRequestID(r.Context()); ok {
				logger = logger.With(xslog.RequestID(id))
			}
			next.ServeHTTP(w, r.WithContext(xslog.WithLogger(r.Context(), logger)))
		})
	}
}
