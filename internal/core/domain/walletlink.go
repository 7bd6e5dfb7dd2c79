package domain

import (
	"time"

	"github.com/google/uuid"
)

// WalletLinkStatus represents the lifecycle state of a wallet link.
type WalletLinkStatus string

const (
	WalletLinkStatusPending      WalletLinkStatus = "PENDING"
	WalletLinkStatusOTPGenerated WalletLinkStatus = "OTP_GENERATED"
	WalletLinkStatusActive       WalletLinkStatus = "ACTIVE"
	WalletLinkStatusDeactivated  WalletLinkStatus = "DEACTIVATED"
	WalletLinkStatusExpired      WalletLinkStatus = "EXPIRED"
	WalletLinkStatusFailed       WalletLinkStatus = "FAILED"
)

// DisplayTokenPrefix is prepended to the token suffix shown to merchants.
// The display token is presentation-only and is never accepted as a credential.
const DisplayTokenPrefix = "mypay-ep-"

// WalletLink represents one merchant's claim on a mobile wallet number,
// backed by a provider-issued token once linking completes.
type WalletLink struct {
	ID                 uuid.UUID        `json:"id"`
	MerchantID         uuid.UUID        `json:"merchant_id"`
	Provider           string           `json:"provider"`
	MobileNumber       string           `json:"mobile_number"`
	Token              string           `json:"-"` // Raw provider token, never exposed
	Status             WalletLinkStatus `json:"status"`
	OTPReference       string           `json:"otp_reference,omitempty"`
	OTPExpiresAt       *time.Time       `json:"otp_expires_at,omitempty"`
	ProviderOrderID    string           `json:"provider_order_id,omitempty"`
	MerchantOrderID    string           `json:"merchant_order_id,omitempty"`
	LinkedAt           *time.Time       `json:"linked_at,omitempty"`
	ExpiresAt          *time.Time       `json:"expires_at,omitempty"`
	DeactivatedAt      *time.Time       `json:"deactivated_at,omitempty"`
	DeactivationReason *string          `json:"deactivation_reason,omitempty"`
	ProviderResponse   []byte           `json:"-"` // Last raw provider response, audit only
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// IsTerminal returns true if the link can never leave its current state.
func (l *WalletLink) IsTerminal() bool {
	return l.Status == WalletLinkStatusDeactivated ||
		l.Status == WalletLinkStatusExpired ||
		l.Status == WalletLinkStatusFailed
}

// OTPExpired returns true if the one-time password window has closed.
func (l *WalletLink) OTPExpired(now time.Time) bool {
	return l.OTPExpiresAt != nil && l.OTPExpiresAt.Before(now)
}

// DisplayToken derives the merchant-facing masked token: a constant prefix
// plus the last six characters of the raw provider token. Empty when no
// token has been issued.
func (l *WalletLink) DisplayToken() string {
	if l.Token == "" {
		return ""
	}
	suffix := l.Token
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return DisplayTokenPrefix + suffix
}
