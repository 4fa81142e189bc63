package handlers

import (
	"net"
	"net/http"
	"strings"

	"github.com/vidgallery/backend/internal/metrics"
)

// retryAfterSeconds is advertised on 429 responses.
const retryAfterSeconds = "1"

// RateLimiter is the minimal interface required to guard write endpoints.
type RateLimiter interface {
	Allow(key string) bool
}

// guardRate charges the caller against limiter under scope. When the budget
// is spent it writes the 429 response and returns false.
func guardRate(w http.ResponseWriter, r *http.Request, limiter RateLimiter, scope string) bool {
	if limiter == nil || limiter.Allow(scope+":"+clientIP(r)) {
		return true
	}

	metrics.RecordRateLimited(scope)
	w.Header().Set("Retry-After", retryAfterSeconds)
	respondJSON(r.Context(), w, http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
	return false
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}
