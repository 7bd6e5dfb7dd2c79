package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-link-gateway/internal/core/domain"
	"wallet-link-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const merchantColumns = `id, name, api_key, api_key_hash, is_active, rate_limit, last_used_at, created_at, updated_at`

// MerchantRepo implements ports.MerchantRepository.
type MerchantRepo struct {
	pool Pool
}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo(pool Pool) *MerchantRepo {
	return &MerchantRepo{pool: pool}
}

// Create inserts a new merchant.
func (r *MerchantRepo) Create(ctx context.Context, m *domain.Merchant) error {
	query := `INSERT INTO merchants (` + merchantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.Name, m.APIKey, m.APIKeyHash, m.IsActive, m.RateLimit,
		m.LastUsedAt, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("merchant already exists")
		}
		return fmt.Errorf("insert merchant: %w", err)
	}
	return nil
}

// GetByID fetches a merchant by its UUID.
func (r *MerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE id = $1`
	return scanMerchant(r.pool.QueryRow(ctx, query, id))
}

// GetByAPIKey fetches a merchant by its API key lookup prefix.
func (r *MerchantRepo) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE api_key = $1`
	return scanMerchant(r.pool.QueryRow(ctx, query, apiKey))
}

// TouchLastUsed stamps the merchant's last successful authentication.
func (r *MerchantRepo) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE merchants SET last_used_at = NOW() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("touch merchant last_used_at: %w", err)
	}
	return nil
}

func scanMerchant(row pgx.Row) (*domain.Merchant, error) {
	m := &domain.Merchant{}
	err := row.Scan(
		&m.ID, &m.Name, &m.APIKey, &m.APIKeyHash, &m.IsActive, &m.RateLimit,
		&m.LastUsedAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan merchant: %w", err)
	}
	return m, nil
}
