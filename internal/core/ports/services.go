package ports

import (
	"context"
	"time"

	"wallet-link-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HashService handles API key hashing (Argon2id).
type HashService interface {
	Hash(secret string) (string, error)
	Verify(secret string, hash string) (bool, error)
}

// IdempotencyCache is the Redis-layer idempotency fast path. The database
// remains the source of truth; cache failures fall through to it.
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // Returns cached response JSON or nil
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RateLimitStore tracks per-merchant request counts over a fixed window.
type RateLimitStore interface {
	// Allow reports whether another request fits within limit for the window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// --- Service Ports (Business Logic) ---

// OTPRequest holds validated input for OTP issuance.
type OTPRequest struct {
	Provider     string
	MerchantID   uuid.UUID
	MobileNumber string
	OrderID      string
}

// ConfirmLinkRequest holds validated input for wallet link confirmation.
type ConfirmLinkRequest struct {
	WalletLinkID    uuid.UUID
	OrderID         string
	OTP             string
	Amount          decimal.Decimal
	MerchantOrderID string // Optional idempotency key; generated when empty
	EmailAddress    string
}

// WalletLinkService owns the wallet-link lifecycle state machine.
type WalletLinkService interface {
	RequestOTP(ctx context.Context, req OTPRequest) (*domain.WalletLink, error)
	ConfirmLink(ctx context.Context, req ConfirmLinkRequest) (*domain.WalletLink, error)
	Deactivate(ctx context.Context, walletLinkID uuid.UUID, reason string) (*domain.WalletLink, error)
	SweepExpired(ctx context.Context) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.WalletLink, error)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.WalletLink, int64, error)
	ListByMerchantAndMobile(ctx context.Context, merchantID uuid.UUID, mobileNumber string) ([]domain.WalletLink, error)
}

// ChargeRequest holds validated input for a pinless wallet debit.
type ChargeRequest struct {
	MerchantID      uuid.UUID
	WalletLinkID    uuid.UUID
	MerchantOrderID string
	Amount          decimal.Decimal
	EmailAddress    string
}

// PaymentService owns idempotent payment execution and read-only
// transaction projections.
type PaymentService interface {
	ChargeWallet(ctx context.Context, req ChargeRequest) (*domain.Transaction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByMerchantOrderID(ctx context.Context, merchantOrderID string) (*domain.Transaction, error)
	GetByProviderOrderID(ctx context.Context, providerOrderID string) (*domain.Transaction, error)
	List(ctx context.Context, params TransactionListParams) ([]domain.Transaction, int64, error)
	GetStats(ctx context.Context, merchantID uuid.UUID, from, to *time.Time) (*TransactionStats, error)
	IncrementRetry(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
}

// AuditService records fire-and-forget audit events and serves a
// merchant's audit history.
type AuditService interface {
	Record(ctx context.Context, action domain.AuditAction, merchantID *uuid.UUID, resourceType, resourceID string, metadata map[string]any)
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, limit, offset int) ([]domain.AuditLog, int64, error)
}

// MerchantService resolves and provisions merchant accounts.
type MerchantService interface {
	// Authenticate resolves an API key to an active merchant.
	Authenticate(ctx context.Context, apiKey string) (*domain.Merchant, error)
	Create(ctx context.Context, name string, rateLimit int) (*domain.Merchant, string, error) // merchant, plaintext key
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
}
