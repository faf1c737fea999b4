package xhttp

import (
	"net"
	"net/http"
	"strings"
)

// GetRequestIP returns the client address, preferring the first hop listed
// in X-Forwarded-For. The header is client controlled unless a trusted proxy
// overwrites it.
func GetRequestIP(r *http.Request) string {
	if xff := r.Header.Get(XForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return stripPort(strings.TrimSpace(first))
	}
	return RemoteIP(r)
}

// RemoteIP returns the address of the peer the connection came from.
func RemoteIP(r *http.Request) string {
	return stripPort(r.RemoteAddr)
}

func stripPort(addr string) string {
	if ip, _, err := net.SplitHostPort(addr); err == nil {
		return ip
	}
	return addr
}
