package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/AnshRaj112/profiledir-backend/pkg/clientip"
	"github.com/AnshRaj112/profiledir-backend/pkg/httpx"
)

const (
	headerXContentTypeOptions     = "X-Content-Type-Options"
	headerXFrameOptions           = "X-Frame-Options"
	headerXXSSProtection          = "X-XSS-Protection"
	headerContentSecurityPolicy   = "Content-Security-Policy"
	headerStrictTransportSecurity = "Strict-Transport-Security"
)

// SecurityHeaders sets security-related response headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(headerXContentTypeOptions, "nosniff")
		w.Header().Set(headerXFrameOptions, "DENY")
		w.Header().Set(headerXXSSProtection, "1; mode=block")
		w.Header().Set(headerContentSecurityPolicy, "default-src 'self'")
		w.Header().Set(headerStrictTransportSecurity, "max-age=31536000; includeSubDomains")
		next.ServeHTTP(w, r)
	})
}

// HostCheck returns 403 when r.Host does not match allowedHost (e.g. api.example.com).
// allowedHost should be the bare hostname without scheme or port.
func HostCheck(allowedHost string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedHost == "" {
				next.ServeHTTP(w, r)
				return
			}
			reqHost := r.Host
			if host, _, err := net.SplitHostPort(reqHost); err == nil {
				reqHost = host
			}
			if !strings.EqualFold(strings.TrimSpace(reqHost), strings.TrimSpace(allowedHost)) {
				httpx.WriteJSON(w, http.StatusForbidden, errorBody("Forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// limiterSet hands out one token bucket per key and forgets keys that have
// been idle for ttl.
type limiterSet struct {
	limit rate.Limit
	burst int
	ttl   time.Duration

	mu         sync.Mutex
	entries    map[string]*limiterEntry
	cleanupRun bool
}

func newLimiterSet(limit rate.Limit, burst int, ttl time.Duration) *limiterSet {
	return &limiterSet{limit: limit, burst: burst, ttl: ttl, entries: make(map[string]*limiterEntry)}
}

func (s *limiterSet) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startCleanupOnce()
	e, ok := s.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.entries[key] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func (s *limiterSet) allow(key string) bool {
	return s.get(key).Allow()
}

func (s *limiterSet) startCleanupOnce() {
	if s.cleanupRun {
		return
	}
	s.cleanupRun = true
	go func() {
		ticker := time.NewTicker(limiterCleanupInterval)
		defer ticker.Stop()
		for range ticker.C {
			s.sweep(time.Now())
		}
	}()
}

func (s *limiterSet) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if now.Sub(e.lastUse) > s.ttl {
			delete(s.entries, key)
		}
	}
}

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterTTL             = 30 * time.Minute

	// Global: per-IP, 1/s, burst 10
	globalRateLimitRPS   = 1
	globalRateLimitBurst = 10

	// Sign-in: per-IP, 1 per 5s, burst 2
	loginRateLimitEvery = 5 * time.Second
	loginRateLimitBurst = 2
)

var (
	globalLimiters = newLimiterSet(rate.Limit(globalRateLimitRPS), globalRateLimitBurst, limiterTTL)
	loginLimiters  = newLimiterSet(rate.Every(loginRateLimitEvery), loginRateLimitBurst, limiterTTL)
)

// GlobalRateLimit limits each IP to 1 req/s, burst 10. Returns 429 when exceeded.
func GlobalRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !globalLimiters.allow(clientip.RealClientIP(r)) {
			httpx.WriteJSON(w, http.StatusTooManyRequests, errorBody("Too many requests. Please slow down."))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginRateLimit applies a stricter limit to sign-in submissions only. Use after GlobalRateLimit.
func LoginRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/login" {
			next.ServeHTTP(w, r)
			return
		}
		if !loginLimiters.allow(clientip.RealClientIP(r)) {
			httpx.WriteJSON(w, http.StatusTooManyRequests, errorBody("Too many login attempts. Please try again later."))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ProductionSecurity returns middlewares for production: SecurityHeaders → HostCheck → GlobalRateLimit → LoginRateLimit.
func ProductionSecurity(allowedHost string) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		SecurityHeaders,
		HostCheck(allowedHost),
		GlobalRateLimit,
		LoginRateLimit,
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func errorBody(msg string) errorResponse {
	return errorResponse{Success: false, Message: msg}
}
