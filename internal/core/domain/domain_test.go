package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWalletLink_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status WalletLinkStatus
		want   bool
	}{
		{"pending", WalletLinkStatusPending, false},
		{"otp generated", WalletLinkStatusOTPGenerated, false},
		{"active", WalletLinkStatusActive, false},
		{"deactivated", WalletLinkStatusDeactivated, true},
		{"expired", WalletLinkStatusExpired, true},
		{"failed", WalletLinkStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &WalletLink{Status: tt.status}
			assert.Equal(t, tt.want, l.IsTerminal())
		})
	}
}

func TestWalletLink_OTPExpired(t *testing.T) {
	now := time.Now()

	past := now.Add(-time.Minute)
	future := now.Add(5 * time.Minute)

	assert.True(t, (&WalletLink{OTPExpiresAt: &past}).OTPExpired(now))
	assert.False(t, (&WalletLink{OTPExpiresAt: &future}).OTPExpired(now))
	assert.False(t, (&WalletLink{}).OTPExpired(now), "no OTP window means not expired")
}

func TestWalletLink_DisplayToken(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"long token", "9876543210123456", "mypay-ep-123456"},
		{"exactly six", "123456", "mypay-ep-123456"},
		{"shorter than six", "TKN", "mypay-ep-TKN"},
		{"no token", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &WalletLink{Token: tt.token}
			assert.Equal(t, tt.want, l.DisplayToken())
		})
	}
}

func TestTransaction_IsTerminal(t *testing.T) {
	tests := []struct {
		name   string
		status TransactionStatus
		want   bool
	}{
		{"pending", TransactionStatusPending, false},
		{"processing", TransactionStatusProcessing, false},
		{"completed", TransactionStatusCompleted, true},
		{"failed", TransactionStatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &Transaction{Status: tt.status}
			assert.Equal(t, tt.want, tx.IsTerminal())
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1", "1.00"},
		{"100.5", "100.50"},
		{"0.1", "0.10"},
		{"2500", "2500.00"},
		{"99.999", "100.00"}, // rounds half away from zero
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := decimal.NewFromString(tt.in)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, FormatAmount(d))
		})
	}
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "9876543210***", MaskToken("98765432101234"))
	assert.Equal(t, "TKN999***", MaskToken("TKN999"))
}
