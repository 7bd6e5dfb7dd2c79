package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RateLimitStore implements ports.RateLimitStore with fixed-window counters
// backed by Redis: INCR + EXPIRE on a key scoped by window id.
type RateLimitStore struct {
	client *goredis.Client
	prefix string
}

// NewRateLimitStore creates a new Redis-backed rate limit store.
func NewRateLimitStore(client *goredis.Client) *RateLimitStore {
	return &RateLimitStore{
		client: client,
		prefix: "ratelimit:",
	}
}

// Allow reports whether another request fits within limit for the window.
func (s *RateLimitStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	windowID := time.Now().Unix() / int64(window.Seconds())
	redisKey := fmt.Sprintf("%s%s:%d", s.prefix, key, windowID)

	count, err := s.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("redis rate limit incr: %w", err)
	}

	// Set expiry only on first increment (new window)
	if count == 1 {
		s.client.Expire(ctx, redisKey, window+time.Second) // +1s safety margin
	}

	return count <= int64(limit), nil
}
