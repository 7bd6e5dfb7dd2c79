package dto

import "github.com/shopspring/decimal"

// RequestOTPRequest is the request body for OTP issuance.
type RequestOTPRequest struct {
	MobileNumber string `json:"mobile_number" binding:"required,msisdn"`
	OrderID      string `json:"order_id" binding:"required,max=100,safe_id"`
}

// ConfirmLinkRequest is the request body for wallet link confirmation.
type ConfirmLinkRequest struct {
	OrderID         string          `json:"order_id" binding:"required,max=100,safe_id"`
	OTP             string          `json:"otp" binding:"required,min=4,max=8,numeric"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	MerchantOrderID string          `json:"merchant_order_id,omitempty" binding:"omitempty,max=100,safe_id"`
	EmailAddress    string          `json:"email_address,omitempty" binding:"omitempty,email"`
}

// DeactivateLinkRequest is the request body for link deactivation.
type DeactivateLinkRequest struct {
	Reason string `json:"reason,omitempty" binding:"omitempty,max=255"`
}

// ChargeRequest is the request body for a pinless wallet debit.
type ChargeRequest struct {
	WalletLinkID    string          `json:"wallet_link_id" binding:"required,uuid"`
	MerchantOrderID string          `json:"merchant_order_id" binding:"required,max=100,safe_id"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	EmailAddress    string          `json:"email_address,omitempty" binding:"omitempty,email"`
}

// CreateMerchantRequest is the request body for merchant provisioning.
type CreateMerchantRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=100"`
	RateLimit int    `json:"rate_limit,omitempty" binding:"omitempty,gt=0"`
}

// WalletLinkResponse is the merchant-facing view of a wallet link. The raw
// provider token never appears; DisplayToken is a masked presentation value.
type WalletLinkResponse struct {
	ID                 string  `json:"id"`
	Provider           string  `json:"provider"`
	MobileNumber       string  `json:"mobile_number"`
	Status             string  `json:"status"`
	DisplayToken       string  `json:"display_token,omitempty"`
	OTPExpiresAt       *string `json:"otp_expires_at,omitempty"`
	MerchantOrderID    string  `json:"merchant_order_id,omitempty"`
	LinkedAt           *string `json:"linked_at,omitempty"`
	ExpiresAt          *string `json:"expires_at,omitempty"`
	DeactivatedAt      *string `json:"deactivated_at,omitempty"`
	DeactivationReason *string `json:"deactivation_reason,omitempty"`
	CreatedAt          string  `json:"created_at"`
}

// TransactionResponse is the merchant-facing view of a transaction.
// Amount is a fixed two-decimal string.
type TransactionResponse struct {
	ID                      string  `json:"id"`
	WalletLinkID            *string `json:"wallet_link_id,omitempty"`
	MerchantOrderID         string  `json:"merchant_order_id"`
	ProviderOrderID         string  `json:"provider_order_id,omitempty"`
	TransactionType         string  `json:"transaction_type"`
	Amount                  *string `json:"amount,omitempty"`
	MobileNumber            string  `json:"mobile_number,omitempty"`
	Status                  string  `json:"status"`
	ProviderResponseCode    string  `json:"provider_response_code,omitempty"`
	ProviderResponseMessage string  `json:"provider_response_message,omitempty"`
	ErrorMessage            string  `json:"error_message,omitempty"`
	RetryCount              int     `json:"retry_count"`
	CompletedAt             *string `json:"completed_at,omitempty"`
	CreatedAt               string  `json:"created_at"`
}

// MerchantResponse is the response body for merchant provisioning. APIKey
// carries the full plaintext key exactly once, at creation.
type MerchantResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	APIKey    string `json:"api_key,omitempty"`
	IsActive  bool   `json:"is_active"`
	RateLimit int    `json:"rate_limit"`
	CreatedAt string `json:"created_at"`
}

// WalletLinkListResponse wraps a paginated wallet link list.
type WalletLinkListResponse struct {
	Items      []WalletLinkResponse `json:"items"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
	TotalPages int                  `json:"total_pages"`
}

// TransactionListResponse wraps a paginated transaction list.
type TransactionListResponse struct {
	Items      []TransactionResponse `json:"items"`
	Total      int64                 `json:"total"`
	Page       int                   `json:"page"`
	PageSize   int                   `json:"page_size"`
	TotalPages int                   `json:"total_pages"`
}

// AuditLogResponse is the API representation of one audit event.
type AuditLogResponse struct {
	ID           string `json:"id"`
	Action       string `json:"action"`
	ResourceType string `json:"resource_type"`
	ResourceID   string `json:"resource_id,omitempty"`
	Metadata     string `json:"metadata,omitempty"`
	IPAddress    string `json:"ip_address,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// AuditLogListResponse wraps a paginated audit history.
type AuditLogListResponse struct {
	Items      []AuditLogResponse `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// TransactionStatsResponse is the response for payment statistics.
// Amounts are fixed two-decimal strings.
type TransactionStatsResponse struct {
	TotalTransactions      int64  `json:"total_transactions"`
	SuccessfulTransactions int64  `json:"successful_transactions"`
	FailedTransactions     int64  `json:"failed_transactions"`
	TotalAmount            string `json:"total_amount"`
	SuccessfulAmount       string `json:"successful_amount"`
}
