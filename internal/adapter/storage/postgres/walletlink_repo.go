package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wallet-link-gateway/internal/core/domain"
	"wallet-link-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const walletLinkColumns = `id, merchant_id, provider, mobile_number, token, status,
	otp_reference, otp_expires_at, provider_order_id, merchant_order_id,
	linked_at, expires_at, deactivated_at, deactivation_reason,
	provider_response, created_at, updated_at`

// WalletLinkRepo implements ports.WalletLinkRepository.
type WalletLinkRepo struct {
	pool Pool
}

// NewWalletLinkRepo creates a new WalletLinkRepo.
func NewWalletLinkRepo(pool Pool) *WalletLinkRepo {
	return &WalletLinkRepo{pool: pool}
}

// Create inserts a new wallet link.
func (r *WalletLinkRepo) Create(ctx context.Context, l *domain.WalletLink) error {
	query := `INSERT INTO wallet_links (` + walletLinkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := r.pool.Exec(ctx, query,
		l.ID, l.MerchantID, l.Provider, l.MobileNumber, l.Token, l.Status,
		l.OTPReference, l.OTPExpiresAt, l.ProviderOrderID, l.MerchantOrderID,
		l.LinkedAt, l.ExpiresAt, l.DeactivatedAt, l.DeactivationReason,
		l.ProviderResponse, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrActiveLinkExists()
		}
		return fmt.Errorf("insert wallet link: %w", err)
	}
	return nil
}

// GetByID fetches a wallet link by UUID.
func (r *WalletLinkRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.WalletLink, error) {
	query := `SELECT ` + walletLinkColumns + ` FROM wallet_links WHERE id = $1`
	return scanWalletLink(r.pool.QueryRow(ctx, query, id))
}

// Update persists a wallet link's current state.
func (r *WalletLinkRepo) Update(ctx context.Context, l *domain.WalletLink) error {
	return r.update(ctx, r.pool, l)
}

// UpdateInTx persists a wallet link's current state within a transaction.
// An ACTIVE transition hitting the single-active-link index surfaces as a
// conflict.
func (r *WalletLinkRepo) UpdateInTx(ctx context.Context, tx pgx.Tx, l *domain.WalletLink) error {
	return r.update(ctx, tx, l)
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *WalletLinkRepo) update(ctx context.Context, db execer, l *domain.WalletLink) error {
	query := `UPDATE wallet_links SET
		token = $1, status = $2, otp_reference = $3, otp_expires_at = $4,
		provider_order_id = $5, merchant_order_id = $6, linked_at = $7,
		expires_at = $8, deactivated_at = $9, deactivation_reason = $10,
		provider_response = $11, updated_at = $12
		WHERE id = $13`

	tag, err := db.Exec(ctx, query,
		l.Token, l.Status, l.OTPReference, l.OTPExpiresAt,
		l.ProviderOrderID, l.MerchantOrderID, l.LinkedAt,
		l.ExpiresAt, l.DeactivatedAt, l.DeactivationReason,
		l.ProviderResponse, l.UpdatedAt, l.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.ErrActiveLinkExists()
		}
		return fmt.Errorf("update wallet link: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet link not found: %s", l.ID)
	}
	return nil
}

// FindActive fetches the ACTIVE link for a merchant + mobile number, if any.
func (r *WalletLinkRepo) FindActive(ctx context.Context, merchantID uuid.UUID, mobileNumber string) (*domain.WalletLink, error) {
	query := `SELECT ` + walletLinkColumns + ` FROM wallet_links
		WHERE merchant_id = $1 AND mobile_number = $2 AND status = 'ACTIVE'`
	return scanWalletLink(r.pool.QueryRow(ctx, query, merchantID, mobileNumber))
}

// FindActiveByMerchantOrder fetches the ACTIVE link created under a merchant
// order id, if any. Used for link-confirmation idempotency.
func (r *WalletLinkRepo) FindActiveByMerchantOrder(ctx context.Context, merchantID uuid.UUID, merchantOrderID string) (*domain.WalletLink, error) {
	query := `SELECT ` + walletLinkColumns + ` FROM wallet_links
		WHERE merchant_id = $1 AND merchant_order_id = $2 AND status = 'ACTIVE'`
	return scanWalletLink(r.pool.QueryRow(ctx, query, merchantID, merchantOrderID))
}

// ListByMerchant fetches a merchant's links, newest first, with a total count.
func (r *WalletLinkRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.WalletLink, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM wallet_links WHERE merchant_id = $1`, merchantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count wallet links: %w", err)
	}

	query := `SELECT ` + walletLinkColumns + ` FROM wallet_links
		WHERE merchant_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, merchantID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list wallet links: %w", err)
	}
	defer rows.Close()

	links, err := collectWalletLinks(rows)
	if err != nil {
		return nil, 0, err
	}
	return links, total, nil
}

// ListByMerchantAndMobile fetches all links for a merchant + mobile number.
func (r *WalletLinkRepo) ListByMerchantAndMobile(ctx context.Context, merchantID uuid.UUID, mobileNumber string) ([]domain.WalletLink, error) {
	query := `SELECT ` + walletLinkColumns + ` FROM wallet_links
		WHERE merchant_id = $1 AND mobile_number = $2 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, merchantID, mobileNumber)
	if err != nil {
		return nil, fmt.Errorf("list wallet links by mobile: %w", err)
	}
	defer rows.Close()

	return collectWalletLinks(rows)
}

// ExpireActiveBefore flips every ACTIVE link past its expiry to EXPIRED.
func (r *WalletLinkRepo) ExpireActiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `UPDATE wallet_links SET status = 'EXPIRED', updated_at = NOW()
		WHERE status = 'ACTIVE' AND expires_at IS NOT NULL AND expires_at < $1`

	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("expire wallet links: %w", err)
	}
	return tag.RowsAffected(), nil
}

func collectWalletLinks(rows pgx.Rows) ([]domain.WalletLink, error) {
	var links []domain.WalletLink
	for rows.Next() {
		l := domain.WalletLink{}
		if err := scanWalletLinkInto(rows, &l); err != nil {
			return nil, fmt.Errorf("scan wallet link row: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet link rows: %w", err)
	}
	return links, nil
}

func scanWalletLink(row pgx.Row) (*domain.WalletLink, error) {
	l := &domain.WalletLink{}
	if err := scanWalletLinkInto(row, l); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan wallet link: %w", err)
	}
	return l, nil
}

func scanWalletLinkInto(row pgx.Row, l *domain.WalletLink) error {
	return row.Scan(
		&l.ID, &l.MerchantID, &l.Provider, &l.MobileNumber, &l.Token, &l.Status,
		&l.OTPReference, &l.OTPExpiresAt, &l.ProviderOrderID, &l.MerchantOrderID,
		&l.LinkedAt, &l.ExpiresAt, &l.DeactivatedAt, &l.DeactivationReason,
		&l.ProviderResponse, &l.CreatedAt, &l.UpdatedAt,
	)
}
