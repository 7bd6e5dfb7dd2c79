package postgres

import "context"

// HealthCheck reports PostgreSQL liveness for the health endpoint.
type HealthCheck struct {
	pool Pool
}

func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

// Ping runs a trivial query so a checked-out connection is actually usable,
// not just present in the pool.
func (h *HealthCheck) Ping(ctx context.Context) error {
	_, err := h.pool.Exec(ctx, "SELECT 1")
	return err
}

func (h *HealthCheck) Name() string {
	return "postgresql"
}
