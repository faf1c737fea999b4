package middleware

import (
	"net/http"

	"github.com/garrettladley/csverify/internal/xhttp"
)

var securityHeaders = [...]struct{ key, value string }{
	{xhttp.XContentTypeOpts, "nosniff"},
	{xhttp.XFrameOpts, "DENY"},
	{xhttp.XXSSProtection, "0"},
	{xhttp.ReferrerPolicy, "no-referrer"},
	{xhttp.CacheControl, "no-store"},
}

func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, sh := range securityHeaders {
			h.Set(sh.key, sh.value)
		}
		next.ServeHTTP(w, r)
	})
}
