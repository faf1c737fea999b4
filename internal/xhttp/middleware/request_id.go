package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/garrettladley/csverify/internal/xcontext"
	"github.com/garrettladley/csverify/internal/xhttp"
)

type requestIDConfig struct {
	idFunc     func() string
	trustInput bool
}

type RequestIDOption func(*requestIDConfig)

// WithIDFunc replaces the generator used for new request IDs.
func WithIDFunc(f func() string) RequestIDOption {
	return func(c *requestIDConfig) { c.idFunc = f }
}

// WithTrustedInput reuses an inbound X-Request-ID when it is a valid UUID.
func WithTrustedInput() RequestIDOption {
	return func(c *requestIDConfig) { c.trustInput = true }
}

func RequestID(opts ...RequestIDOption) func(http.Handler) http.Handler {
	cfg := requestIDConfig{
		idFunc: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if cfg.trustInput {
				if in := r.Header.Get(xhttp.XRequestID); uuid.Validate(in) == nil {
					id = in
				}
			}
			if id == "" {
				id = cfg.idFunc()
			}
			ctx := xcontext.SetRequestID(r.Context(), id)
			xhttp.SetHeaderRequestID(w, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
