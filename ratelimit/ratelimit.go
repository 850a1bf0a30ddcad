// Package ratelimit implements C11: an optional per-route rate-limit hook.
// Disabled by default (spec.md §1 non-goal "rate limiting (hooks only)"),
// grounded on snapetech-plexTuner's use of golang.org/x/time for request
// pacing.
package ratelimit

import (
	"net/http"

	"golang.org/x/time/rate"
)

// Limiter wraps golang.org/x/time/rate for use as HTTP middleware.
type Limiter struct {
	enabled bool
	limiter *rate.Limiter
}

// New builds a Limiter. When enabled is false, Middleware is a no-op —
// the hook exists but does nothing, per spec.
func New(enabled bool, requestsPerSecond float64, burst int) *Limiter {
	return &Limiter{
		enabled: enabled,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Middleware enforces the limit when enabled, returning 429 on exhaustion.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	if !l.enabled {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limiter.Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
