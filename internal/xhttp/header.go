package xhttp

import (
	"net/http"
	"strconv"
	"time"
)

const (
	XForwardedFor    = "X-Forwarded-For"
	XContentTypeOpts = "X-Content-Type-Options"
	XFrameOpts       = "X-Frame-Options"
	XXSSProtection   = "X-Xss-Protection"
	ReferrerPolicy   = "Referrer-Policy"
	XRateLimitReason = "X-RateLimit-Reason"
	XRequestID       = "X-Request-ID"
)

const (
	ContentType     = "Content-Type"
	ContentEncoding = "Content-Encoding"
	ContentLength   = "Content-Length"
	AcceptEncoding  = "Accept-Encoding"
	Vary            = "Vary"
	UserAgent       = "User-Agent"
	CacheControl    = "Cache-Control"
)

func SetHeaderRequestID(w http.ResponseWriter, requestID string) {
	w.Header().Set(XRequestID, requestID)
}

func SetHeaderContentTypeApplicationJSON(w http.ResponseWriter) {
	const applicationJSON = "application/json"
	w.Header().Set(ContentType, applicationJSON)
}

func SetHeaderContentTypeEventStream(w http.ResponseWriter) {
	const textEventStream = "text/event-stream"
	w.Header().Set(ContentType, textEventStream)
}

func SetHeaderRetryAfter(w http.ResponseWriter, retryAfter time.Duration) {
	const retryAfterHeader = "Retry-After"
	// round up so clients never retry early
	seconds := int((retryAfter + time.Second - 1) / time.Second)
	w.Header().Set(retryAfterHeader, strconv.Itoa(seconds))
}
