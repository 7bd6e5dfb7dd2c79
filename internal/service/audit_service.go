package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wallet-link-gateway/internal/core/domain"
	"wallet-link-gateway/internal/core/ports"
	"wallet-link-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService creates a new audit service.
// If repo is nil, audit events are only written to the logger.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record persists an audit entry asynchronously (fire-and-forget).
func (s *auditService) Record(ctx context.Context, action domain.AuditAction, merchantID *uuid.UUID, resourceType, resourceID string, metadata map[string]any) {
	entry := &domain.AuditLog{
		ID:           uuid.New(),
		MerchantID:   merchantID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		CreatedAt:    time.Now().UTC(),
	}
	if len(metadata) > 0 {
		if raw, err := json.Marshal(metadata); err == nil {
			entry.Metadata = string(raw)
		}
	}
	if ip, ok := ctx.Value(ClientIPKey).(string); ok {
		entry.IPAddress = ip
	}

	go func() {
		s.log.Info().
			Str("action", string(action)).
			Str("resource_type", resourceType).
			Str("resource_id", resourceID).
			Msg("audit")

		if s.repo != nil {
			if err := s.repo.Create(context.Background(), entry); err != nil {
				s.log.Warn().Err(err).Str("action", string(action)).Msg("failed to persist audit log")
			}
		}
	}()
}

// ListByMerchant returns a merchant's audit history, newest first.
func (s *auditService) ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.AuditLog, int64, error) {
	if s.repo == nil {
		return nil, 0, nil
	}
	if limit <= 0 {
		limit = 50
	}
	logs, total, err := s.repo.ListByMerchant(ctx, merchantID, limit, offset)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list audit logs: %w", err))
	}
	return logs, total, nil
}

type contextKey string

// ClientIPKey carries the caller's IP from the HTTP layer into audit records.
const ClientIPKey contextKey = "client_ip"
