package postgres

import (
	"context"
	"testing"
	"time"

	"wallet-link-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auditColumns() []string {
	return []string{"id", "merchant_id", "action", "resource_type", "resource_id",
		"metadata", "ip_address", "created_at"}
}

func TestAuditRepo_Create_WithMetadata(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepository(mock)
	merchantID := uuid.New()
	log := &domain.AuditLog{
		ID:           uuid.New(),
		MerchantID:   &merchantID,
		Action:       domain.AuditActionWalletLinked,
		ResourceType: "wallet_link",
		ResourceID:   uuid.NewString(),
		Metadata:     `{"merchant_order_id":"ORDER-001"}`,
		IPAddress:    "10.0.0.1",
		CreatedAt:    time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(
			log.ID, log.MerchantID, string(log.Action), log.ResourceType,
			log.ResourceID, &log.Metadata, log.IPAddress, log.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), log)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_Create_NoMetadataStoresNull(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepository(mock)
	log := &domain.AuditLog{
		ID:        uuid.New(),
		Action:    domain.AuditActionAPIKeyInvalid,
		IPAddress: "10.0.0.1",
		CreatedAt: time.Now().UTC(),
	}

	// The metadata column is jsonb; an empty string would fail jsonb
	// parsing, so the repo must bind NULL instead.
	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(
			log.ID, log.MerchantID, string(log.Action), log.ResourceType,
			log.ResourceID, (*string)(nil), log.IPAddress, log.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), log)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_ListByMerchant_NullMetadata(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewAuditRepository(mock)
	merchantID := uuid.New()
	now := time.Now().UTC().Truncate(time.Microsecond)
	withMeta := `{"merchant_order_id":"ORDER-001"}`

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM audit_logs WHERE merchant_id").
		WithArgs(merchantID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectQuery("SELECT .+ FROM audit_logs WHERE merchant_id .+ ORDER BY created_at DESC").
		WithArgs(merchantID, 50, 0).
		WillReturnRows(pgxmock.NewRows(auditColumns()).
			AddRow(uuid.New(), &merchantID, "wallet.linked", "wallet_link", uuid.NewString(), &withMeta, "10.0.0.1", now).
			AddRow(uuid.New(), &merchantID, "merchant.created", "merchant", merchantID.String(), (*string)(nil), "10.0.0.1", now))

	logs, total, err := repo.ListByMerchant(context.Background(), merchantID, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, logs, 2)
	assert.Equal(t, withMeta, logs[0].Metadata)
	assert.Empty(t, logs[1].Metadata)
	assert.NoError(t, mock.ExpectationsWereMet())
}
