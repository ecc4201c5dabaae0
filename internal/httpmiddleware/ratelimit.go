package httpmiddleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter enforces a per-IP fixed-window limit backed by Redis
// so the count survives restarts and is shared across replicas.
type RedisRateLimiter struct {
	client    *redis.Client
	perMinute int
}

// NewRedisRateLimiter creates a limiter allowing perMinute requests per IP.
func NewRedisRateLimiter(client *redis.Client, perMinute int) *RedisRateLimiter {
	if perMinute <= 0 {
		perMinute = 120
	}
	return &RedisRateLimiter{client: client, perMinute: perMinute}
}

// GinMiddleware returns gin handler enforcing per-IP limits. When Redis
// is unreachable the limiter fails open rather than blocking traffic.
func (l *RedisRateLimiter) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		key := fmt.Sprintf("ratelimit:%s:%d", ip, time.Now().Unix()/60)
		count, err := l.client.Incr(c.Request.Context(), key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			l.client.Expire(c.Request.Context(), key, time.Minute)
		}
		if count > int64(l.perMinute) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit"})
			return
		}
		c.Next()
	}
}
