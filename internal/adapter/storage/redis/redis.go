package redis

import (
	"context"
	"fmt"

	"wallet-link-gateway/config"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewClient connects to Redis and verifies the connection before handing it
// out. Both the idempotency cache and the rate limiter share one client.
func NewClient(ctx context.Context, cfg config.RedisConfig, log zerolog.Logger) (*goredis.Client, error) {
	opts := &goredis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	client := goredis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("redis connected")
	return client, nil
}
