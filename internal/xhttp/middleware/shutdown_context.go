package middleware

import (
	"net/http"

	"github.com/garrettladley/csverify/internal/xcontext"
)

// ShutdownContext flags requests that arrive after the server's base context
// was cancelled, so streaming handlers can tell a shutdown from a client
// disconnect.
func ShutdownContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ctx := r.Context(); ctx.Err() != nil {
			r = r.WithContext(xcontext.SetShutdownInProgress(ctx, true))
		}
		next.ServeHTTP(w, r)
	})
}
