package middleware

import (
	"net/http"

	"github.com/garrettladley/csverify/internal/storage"
	"github.com/garrettladley/csverify/internal/xerrors"
	"github.com/garrettladley/csverify/internal/xhttp"
	"github.com/garrettladley/csverify/internal/xslog"
)

const reasonIPRateLimit = "ip_rate_limit"

type rateLimitConfig struct {
	clientIP func(*http.Request) string
}

type RateLimitOption func(*rateLimitConfig)

// WithTrustedForwardedFor keys the limit on the first X-Forwarded-For hop.
// Only safe behind a proxy that overwrites the header; otherwise clients
// can rotate it to escape the limit.
func WithTrustedForwardedFor() RateLimitOption {
	return func(c *rateLimitConfig) { c.clientIP = xhttp.GetRequestIP }
}

// RateLimit applies per client IP rate limiting, keyed on the connection's
// peer address by default. When the limiter itself fails the request is let
// through, so a storage outage does not drop webhook deliveries.
func RateLimit(limiter storage.RateLimiter, opts ...RateLimitOption) func(http.Handler) http.Handler {
	cfg := rateLimitConfig{clientIP: xhttp.RemoteIP}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := cfg.clientIP(r)

			result, err := limiter.Allow(ctx, ip)
			if err != nil {
				xslog.FromContext(ctx).ErrorContext(ctx, "rate limit check failed",
					xslog.ErrorGroup(err),
					xslog.IP(ip),
				)
				next.ServeHTTP(w, r)
				return
			}

			if !result.Allowed {
				xerrors.WriteError(ctx, w, xerrors.TooManyRequests(
					xerrors.WithRetryAfter(result.RetryAfter),
					xerrors.WithReason(reasonIPRateLimit),
				))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
