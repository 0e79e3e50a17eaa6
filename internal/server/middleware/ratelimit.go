package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit rejects requests exceeding the shared limiter with a 429
// and the standard error envelope. A nil limiter disables limiting.
func RateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil && !limiter.Allow() {
				WriteError(w, r, http.StatusTooManyRequests,
					"RATE_LIMITED", "request rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
