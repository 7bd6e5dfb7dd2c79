package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// ProviderResult carries the provider-agnostic outcome fields common to all
// wallet provider operations. Raw holds the unparsed response body for the
// audit trail.
type ProviderResult struct {
	ResponseCode    string
	ResponseMessage string
	ProviderOrderID string
	Raw             []byte
}

// OTPResult is the outcome of an OTP generation call.
type OTPResult struct {
	ProviderResult
	OTPReference string
}

// LinkResult is the outcome of a wallet-link transaction call.
type LinkResult struct {
	ProviderResult
	Token string
}

// ChargeResult is the outcome of a pinless payment call.
type ChargeResult struct {
	ProviderResult
	TransactionID string
}

// DeactivateResult is the outcome of a link deactivation call.
type DeactivateResult struct {
	ProviderResult
}

// LinkWalletRequest holds provider-agnostic input for wallet linking.
type LinkWalletRequest struct {
	MobileNumber string
	OrderID      string
	OTP          string
	Amount       decimal.Decimal
	EmailAddress string // Optional; providers that require one substitute a default
}

// PinlessChargeRequest holds provider-agnostic input for a pinless debit.
type PinlessChargeRequest struct {
	Token        string
	MobileNumber string
	OrderID      string
	Amount       decimal.Decimal
	EmailAddress string
}

// WalletProvider is the capability interface every wallet provider
// implements. Orchestration logic depends only on this interface, so new
// providers plug in without touching the wallet-link or payment services.
// Implementations never retry; they classify failures and report
// retryability through the returned error.
type WalletProvider interface {
	ID() string
	GenerateOTP(ctx context.Context, mobileNumber, orderID string) (*OTPResult, error)
	LinkWallet(ctx context.Context, req LinkWalletRequest) (*LinkResult, error)
	ChargePinless(ctx context.Context, req PinlessChargeRequest) (*ChargeResult, error)
	DeactivateLink(ctx context.Context, token, mobileNumber string) (*DeactivateResult, error)
}

// ProviderRegistry resolves a provider identifier to its implementation.
type ProviderRegistry interface {
	Get(providerID string) (WalletProvider, error)
	Supported() []string
}
