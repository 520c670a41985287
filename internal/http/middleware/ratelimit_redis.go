package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// Limiter counts hits per key in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, key string, max int, window time.Duration) bool
}

// RedisLimiter implements a fixed-window limiter using Redis INCR/EXPIRE.
// On Redis errors it fails open.
type RedisLimiter struct {
	client *redis.Client
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{client: client}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, max int, window time.Duration) bool {
	if l.client == nil {
		return true
	}
	key = "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + key

	val, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return true
	}
	if val == 1 {
		// first increment, set expiry
		l.client.Expire(ctx, key, window)
	}
	return val <= int64(max)
}

// RateLimit limits requests per client IP.
func RateLimit(l Limiter, maxRequests int, window time.Duration) gin.HandlerFunc {
	return limit(l, maxRequests, window, func(c *gin.Context) (string, bool) {
		return "ip:" + c.ClientIP(), true
	})
}

// ScopedRateLimit limits requests per client IP in a counter separate from
// other limits on the same route.
func ScopedRateLimit(l Limiter, scope string, maxRequests int, window time.Duration) gin.HandlerFunc {
	return limit(l, maxRequests, window, func(c *gin.Context) (string, bool) {
		return scope + ":ip:" + c.ClientIP(), true
	})
}

// UserRateLimit limits requests per authenticated user. JWT must run first.
func UserRateLimit(l Limiter, maxRequests int, window time.Duration) gin.HandlerFunc {
	return limit(l, maxRequests, window, func(c *gin.Context) (string, bool) {
		uid, ok := UserID(c)
		if !ok {
			return "", false
		}
		return "user:" + strconv.FormatInt(uid, 10), true
	})
}

func limit(l Limiter, maxRequests int, window time.Duration, keyOf func(*gin.Context) (string, bool)) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := keyOf(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if !l.Allow(c.Request.Context(), key, maxRequests, window) {
			// metrics
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}

		// metrics
		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
