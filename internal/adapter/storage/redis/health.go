package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

// HealthCheck reports Redis liveness for the health endpoint. Redis being
// down degrades the gateway but does not stop it.
type HealthCheck struct {
	client *goredis.Client
}

func NewHealthCheck(client *goredis.Client) *HealthCheck {
	return &HealthCheck{client: client}
}

func (h *HealthCheck) Ping(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}

func (h *HealthCheck) Name() string {
	return "redis"
}
