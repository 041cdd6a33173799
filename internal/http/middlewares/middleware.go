// Package middlewares contains the HTTP middleware chain: request ids,
// access logging, panic recovery, rate limiting and bearer authentication.
package middlewares

import (
	"net"
	"net/http"
	"strings"
)

// Middleware decorates an http.Handler.
type Middleware func(http.Handler) http.Handler

// ClientIP extracts the caller's IP, honoring X-Forwarded-For when a proxy
// sits in front.
func ClientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
