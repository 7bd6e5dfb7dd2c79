package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionOTPGenerated      AuditAction = "wallet.otp_generated"
	AuditActionWalletLinked      AuditAction = "wallet.linked"
	AuditActionWalletDeactivated AuditAction = "wallet.deactivated"
	AuditActionPaymentProcessed  AuditAction = "payment.processed"
	AuditActionPaymentCompleted  AuditAction = "payment.completed"
	AuditActionPaymentFailed     AuditAction = "payment.failed"
	AuditActionMerchantCreated   AuditAction = "merchant.created"
	AuditActionAPIKeyInvalid     AuditAction = "auth.api_key_invalid"
)

// AuditLog records one audited action. The core emits these fire-and-forget;
// correctness never depends on their durability.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	MerchantID   *uuid.UUID  `json:"merchant_id,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Metadata     string      `json:"metadata,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}
