package postgres

import (
	"context"
	"fmt"

	"wallet-link-gateway/internal/core/domain"
	"wallet-link-gateway/internal/core/ports"

	"github.com/google/uuid"
)

type auditRepo struct {
	pool Pool
}

// NewAuditRepository creates a PostgreSQL-backed AuditRepository.
func NewAuditRepository(pool Pool) ports.AuditRepository {
	return &auditRepo{pool: pool}
}

func (r *auditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	// metadata is jsonb; events without metadata store NULL since the
	// empty string is not valid JSON.
	var metadata *string
	if log.Metadata != "" {
		metadata = &log.Metadata
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_logs (id, merchant_id, action, resource_type, resource_id, metadata, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		log.ID, log.MerchantID, string(log.Action), log.ResourceType,
		log.ResourceID, metadata, log.IPAddress, log.CreatedAt,
	)
	return err
}

func (r *auditRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.AuditLog, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs WHERE merchant_id = $1`, merchantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, merchant_id, action, resource_type, resource_id, metadata, ip_address, created_at
		 FROM audit_logs WHERE merchant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		merchantID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.AuditLog
	for rows.Next() {
		l := domain.AuditLog{}
		var metadata *string
		if err := rows.Scan(&l.ID, &l.MerchantID, &l.Action, &l.ResourceType, &l.ResourceID, &metadata, &l.IPAddress, &l.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		if metadata != nil {
			l.Metadata = *metadata
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate audit logs: %w", err)
	}
	return logs, total, nil
}
