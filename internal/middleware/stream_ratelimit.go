package middleware

import (
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/AnshRaj112/profiledir-backend/pkg/clientip"
	"github.com/AnshRaj112/profiledir-backend/pkg/httpx"
)

// Session stream rate limit: per-IP, different limits for clients with and
// without a session cookie. Signed in: 30/min, burst 20. Anonymous: 10/min, burst 5.
// Reconnecting tabs stay under it; reconnect loops do not.

const (
	streamAuthRPS   = 0.5 // 30/min
	streamAuthBurst = 20
	streamAnonRPS   = 0.17 // ~10/min
	streamAnonBurst = 5
)

// SessionStreamRateLimit limits how often a client may open the auth-state
// stream. Returns 429 with rate limit headers when exceeded.
func SessionStreamRateLimit(cookieName string) func(http.Handler) http.Handler {
	authLimiters := newLimiterSet(rate.Limit(streamAuthRPS), streamAuthBurst, limiterTTL)
	anonLimiters := newLimiterSet(rate.Limit(streamAnonRPS), streamAnonBurst, limiterTTL)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientip.RealClientIP(r)

			limiters, limit := anonLimiters, streamAnonBurst
			if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
				limiters, limit = authLimiters, streamAuthBurst
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))

			if !limiters.allow(ip) {
				w.Header().Set("X-RateLimit-Remaining", "0")
				httpx.WriteJSON(w, http.StatusTooManyRequests, errorBody("Too many session stream requests. Please slow down."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
