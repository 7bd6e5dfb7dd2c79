package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of provider call a transaction records.
type TransactionType string

const (
	TransactionTypeOTP            TransactionType = "GENERATE_OTP"
	TransactionTypeInitiateLink   TransactionType = "INITIATE_LINK"
	TransactionTypeWalletLink     TransactionType = "WALLET_LINK"
	TransactionTypePinlessPayment TransactionType = "PINLESS_PAYMENT"
	TransactionTypeDeactivateLink TransactionType = "DEACTIVATE_LINK"
)

// TransactionStatus represents the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"
	TransactionStatusFailed     TransactionStatus = "FAILED"
)

// Transaction is an append-only record of one attempted payment or
// lifecycle-affecting provider call. MerchantOrderID is globally unique and
// serves as the idempotency key for payment execution.
type Transaction struct {
	ID                      uuid.UUID         `json:"id"`
	MerchantID              uuid.UUID         `json:"merchant_id"`
	WalletLinkID            *uuid.UUID        `json:"wallet_link_id,omitempty"`
	MerchantOrderID         string            `json:"merchant_order_id"`
	ProviderOrderID         string            `json:"provider_order_id,omitempty"`
	TransactionType         TransactionType   `json:"transaction_type"`
	Amount                  *decimal.Decimal  `json:"amount,omitempty"`
	MobileNumber            string            `json:"mobile_number"`
	Status                  TransactionStatus `json:"status"`
	ProviderResponseCode    string            `json:"provider_response_code,omitempty"`
	ProviderResponseMessage string            `json:"provider_response_message,omitempty"`
	RequestPayload          []byte            `json:"-"` // Redacted copy of the outbound request
	ResponsePayload         []byte            `json:"-"` // Raw provider response
	ErrorMessage            string            `json:"error_message,omitempty"`
	RetryCount              int               `json:"retry_count"`
	CompletedAt             *time.Time        `json:"completed_at,omitempty"`
	CreatedAt               time.Time         `json:"created_at"`
	UpdatedAt               time.Time         `json:"updated_at"`
}

// IsTerminal returns true if the transaction reached a final state.
func (t *Transaction) IsTerminal() bool {
	return t.Status == TransactionStatusCompleted || t.Status == TransactionStatusFailed
}

// FormatAmount renders a decimal amount the way the provider protocol
// requires: exactly two decimal places ("1.00", "100.50").
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// MaskToken redacts a provider token for persisted request payloads: the
// first ten characters are kept, the remainder replaced with "***".
func MaskToken(token string) string {
	if len(token) <= 10 {
		return token + "***"
	}
	return token[:10] + "***"
}
