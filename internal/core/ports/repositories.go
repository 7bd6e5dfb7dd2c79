package ports

import (
	"context"
	"time"

	"wallet-link-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// WalletLinkRepository defines persistence operations for wallet links.
// The single-active-link invariant per (merchant_id, mobile_number) is
// enforced by a partial unique index; writes that would violate it surface
// a conflict error from the adapter.
type WalletLinkRepository interface {
	Create(ctx context.Context, link *domain.WalletLink) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WalletLink, error)
	Update(ctx context.Context, link *domain.WalletLink) error
	// UpdateInTx is used when activation must commit atomically with the
	// wallet-link transaction record.
	UpdateInTx(ctx context.Context, tx pgx.Tx, link *domain.WalletLink) error
	FindActive(ctx context.Context, merchantID uuid.UUID, mobileNumber string) (*domain.WalletLink, error)
	FindActiveByMerchantOrder(ctx context.Context, merchantID uuid.UUID, merchantOrderID string) (*domain.WalletLink, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.WalletLink, int64, error)
	ListByMerchantAndMobile(ctx context.Context, merchantID uuid.UUID, mobileNumber string) ([]domain.WalletLink, error)
	// ExpireActiveBefore flips every ACTIVE link whose expires_at has passed
	// to EXPIRED and returns the number of affected rows.
	ExpireActiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// TransactionRepository defines persistence operations for transactions.
// Rows are append-only: status updates never delete history.
type TransactionRepository interface {
	CreateInTx(ctx context.Context, tx pgx.Tx, txn *domain.Transaction) error
	// CreateIfAbsent inserts txn unless a transaction with the same
	// merchant_order_id already exists. It reports whether the insert
	// happened and returns the existing row when it did not. This is the
	// transactional idempotency primitive for payment execution.
	CreateIfAbsent(ctx context.Context, txn *domain.Transaction) (bool, *domain.Transaction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByMerchantOrderID(ctx context.Context, merchantOrderID string) (*domain.Transaction, error)
	GetByProviderOrderID(ctx context.Context, providerOrderID string) (*domain.Transaction, error)
	Update(ctx context.Context, txn *domain.Transaction) error
	IncrementRetry(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetStats(ctx context.Context, merchantID uuid.UUID, from, to *time.Time) (*TransactionStats, error)
}

// TransactionListParams holds filter + pagination for listing transactions.
type TransactionListParams struct {
	MerchantID uuid.UUID
	Status     *domain.TransactionStatus
	Type       *domain.TransactionType
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

// TransactionStats holds aggregated pinless-payment statistics. Amounts are
// exact fixed-point sums, never floating accumulation.
type TransactionStats struct {
	TotalTransactions      int64
	SuccessfulTransactions int64
	FailedTransactions     int64
	TotalAmount            decimal.Decimal
	SuccessfulAmount       decimal.Decimal
}

// MerchantRepository defines persistence operations for merchants.
type MerchantRepository interface {
	Create(ctx context.Context, merchant *domain.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*domain.Merchant, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID) error
}

// AuditRepository persists audit log records.
type AuditRepository interface {
	Create(ctx context.Context, log *domain.AuditLog) error
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.AuditLog, int64, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
