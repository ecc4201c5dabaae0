package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis carries the shared client behind the rate limiter and the
// audit queue.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis. Timeouts stay short so a redis outage
// degrades the limiter and the queue instead of stalling requests; a
// non-positive opTimeout falls back to one second.
func NewRedis(addr string, opTimeout time.Duration) *Redis {
	if opTimeout <= 0 {
		opTimeout = time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * opTimeout,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
		MinIdleConns: 2,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity for the health endpoint.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}
