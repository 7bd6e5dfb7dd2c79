package postgres

import (
	"context"
	"testing"
	"time"

	"wallet-link-gateway/internal/core/domain"
	"wallet-link-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWalletLink(merchantID uuid.UUID) *domain.WalletLink {
	now := time.Now().UTC().Truncate(time.Microsecond)
	linked := now
	expires := now.Add(365 * 24 * time.Hour)
	return &domain.WalletLink{
		ID:               uuid.New(),
		MerchantID:       merchantID,
		Provider:         "easypaisa",
		MobileNumber:     "03001234567",
		Token:            "9876543210123456789",
		Status:           domain.WalletLinkStatusActive,
		OTPReference:     "OTP-001",
		ProviderOrderID:  "EP-001",
		MerchantOrderID:  "ORDER-001",
		LinkedAt:         &linked,
		ExpiresAt:        &expires,
		ProviderResponse: []byte(`{"responseCode":"0000"}`),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func walletLinkTestColumns() []string {
	return []string{"id", "merchant_id", "provider", "mobile_number", "token", "status",
		"otp_reference", "otp_expires_at", "provider_order_id", "merchant_order_id",
		"linked_at", "expires_at", "deactivated_at", "deactivation_reason",
		"provider_response", "created_at", "updated_at"}
}

func walletLinkRow(l *domain.WalletLink) *pgxmock.Rows {
	return pgxmock.NewRows(walletLinkTestColumns()).AddRow(
		l.ID, l.MerchantID, l.Provider, l.MobileNumber, l.Token, l.Status,
		l.OTPReference, l.OTPExpiresAt, l.ProviderOrderID, l.MerchantOrderID,
		l.LinkedAt, l.ExpiresAt, l.DeactivatedAt, l.DeactivationReason,
		l.ProviderResponse, l.CreatedAt, l.UpdatedAt,
	)
}

func TestWalletLinkRepo_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletLinkRepo(mock)
	link := newTestWalletLink(uuid.New())

	mock.ExpectExec("INSERT INTO wallet_links").
		WithArgs(
			link.ID, link.MerchantID, link.Provider, link.MobileNumber, link.Token, link.Status,
			link.OTPReference, link.OTPExpiresAt, link.ProviderOrderID, link.MerchantOrderID,
			link.LinkedAt, link.ExpiresAt, link.DeactivatedAt, link.DeactivationReason,
			link.ProviderResponse, link.CreatedAt, link.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Create(context.Background(), link)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletLinkRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletLinkRepo(mock)
	link := newTestWalletLink(uuid.New())

	mock.ExpectQuery("SELECT .+ FROM wallet_links WHERE id").
		WithArgs(link.ID).
		WillReturnRows(walletLinkRow(link))

	result, err := repo.GetByID(context.Background(), link.ID)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, link.Token, result.Token)
	assert.Equal(t, domain.WalletLinkStatusActive, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletLinkRepo_FindActive_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletLinkRepo(mock)
	merchantID := uuid.New()

	mock.ExpectQuery("SELECT .+ FROM wallet_links WHERE merchant_id .+ AND mobile_number .+ AND status = 'ACTIVE'").
		WithArgs(merchantID, "03001234567").
		WillReturnRows(pgxmock.NewRows(walletLinkTestColumns()))

	result, err := repo.FindActive(context.Background(), merchantID, "03001234567")
	assert.NoError(t, err)
	assert.Nil(t, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletLinkRepo_Update_UniqueViolationIsConflict(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletLinkRepo(mock)
	link := newTestWalletLink(uuid.New())

	mock.ExpectExec("UPDATE wallet_links SET").
		WithArgs(
			link.Token, link.Status, link.OTPReference, link.OTPExpiresAt,
			link.ProviderOrderID, link.MerchantOrderID, link.LinkedAt,
			link.ExpiresAt, link.DeactivatedAt, link.DeactivationReason,
			link.ProviderResponse, link.UpdatedAt, link.ID,
		).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_wallet_links_active"})

	err = repo.Update(context.Background(), link)
	require.Error(t, err)
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "CON_001", appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletLinkRepo_ExpireActiveBefore(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletLinkRepo(mock)
	cutoff := time.Now().UTC()

	mock.ExpectExec("UPDATE wallet_links SET status = 'EXPIRED'").
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := repo.ExpireActiveBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletLinkRepo_ListByMerchant(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWalletLinkRepo(mock)
	merchantID := uuid.New()
	link := newTestWalletLink(merchantID)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM wallet_links WHERE merchant_id").
		WithArgs(merchantID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery("SELECT .+ FROM wallet_links WHERE merchant_id .+ ORDER BY created_at DESC").
		WithArgs(merchantID, 50, 0).
		WillReturnRows(walletLinkRow(link))

	links, total, err := repo.ListByMerchant(context.Background(), merchantID, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, links, 1)
	assert.Equal(t, link.ID, links[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
