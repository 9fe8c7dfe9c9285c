package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AnshRaj112/profiledir-backend/pkg/clientip"
	"github.com/AnshRaj112/profiledir-backend/pkg/httpx"
)

const (
	// RateLimitWindow is 120 seconds
	RateLimitWindow = 120 * time.Second
	// RateLimitMaxRequests is the maximum number of requests allowed in the window
	RateLimitMaxRequests = 25
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked (24 hours)
	BlockedIPDuration = 24 * time.Hour
)

// RedisRateLimiter counts requests per IP in a fixed Redis window and blocks
// IPs that exceed it. Counters are shared by every server instance.
type RedisRateLimiter struct {
	rdb    *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

func NewRedisRateLimiter(rdb *redis.Client, logger *zap.Logger) *RedisRateLimiter {
	return &RedisRateLimiter{rdb: rdb, logger: logger, now: time.Now}
}

// Middleware provides rate limiting with IP blocking. Redis failures let the
// request through.
func (l *RedisRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientip.ForwardedClientIP(r)
		ctx := r.Context()

		blocked, err := l.IsIPBlocked(ctx, ip)
		if err == nil && blocked {
			httpx.WriteJSON(w, http.StatusTooManyRequests, errorBody("Your IP has been temporarily blocked due to excessive requests. Please try again later."))
			return
		}

		count, err := l.hit(ctx, ip)
		if err != nil {
			l.logger.Warn("rate limit unavailable", zap.String("ip", ip), zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		if count > RateLimitMaxRequests {
			if err := l.rdb.Set(ctx, BlockedIPKeyPrefix+ip, "1", BlockedIPDuration).Err(); err != nil {
				l.logger.Warn("failed to block ip", zap.String("ip", ip), zap.Error(err))
			} else {
				l.logger.Info("ip blocked", zap.String("ip", ip), zap.Int64("requests", count))
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(RateLimitWindow.Seconds())))
			httpx.WriteJSON(w, http.StatusTooManyRequests, errorBody("Rate limit exceeded. Your IP has been temporarily blocked. Please try again later."))
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(RateLimitMaxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(RateLimitMaxRequests-count, 10))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(l.now().Add(RateLimitWindow).Unix(), 10))

		next.ServeHTTP(w, r)
	})
}

// hit counts one request and returns the number seen in the current window.
func (l *RedisRateLimiter) hit(ctx context.Context, ip string) (int64, error) {
	key := RateLimitKeyPrefix + ip

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, RateLimitWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("count request: %w", err)
	}
	return incr.Val(), nil
}

// UnblockIP removes an IP from the blocked list
func (l *RedisRateLimiter) UnblockIP(ctx context.Context, ip string) error {
	return l.rdb.Del(ctx, BlockedIPKeyPrefix+ip, RateLimitKeyPrefix+ip).Err()
}

// IsIPBlocked checks if an IP is currently blocked
func (l *RedisRateLimiter) IsIPBlocked(ctx context.Context, ip string) (bool, error) {
	count, err := l.rdb.Exists(ctx, BlockedIPKeyPrefix+ip).Result()
	return count > 0, err
}
