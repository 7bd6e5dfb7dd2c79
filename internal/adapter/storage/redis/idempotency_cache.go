package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// keyPrefix namespaces gateway keys inside a shared Redis.
const keyPrefix = "wlg:"

// IdempotencyCache implements ports.IdempotencyCache. It sits in front of
// the transactions table as a fast path; the table stays the source of
// truth, so a flushed cache costs a DB lookup and nothing else.
type IdempotencyCache struct {
	client *goredis.Client
}

// NewIdempotencyCache creates a Redis-backed idempotency cache.
func NewIdempotencyCache(client *goredis.Client) *IdempotencyCache {
	return &IdempotencyCache{client: client}
}

// Get returns the cached value for key, or nil, nil when absent.
func (c *IdempotencyCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis idempotency get: %w", err)
	}
	return val, nil
}

// Set stores value under key for ttl.
func (c *IdempotencyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis idempotency set: %w", err)
	}
	return nil
}
