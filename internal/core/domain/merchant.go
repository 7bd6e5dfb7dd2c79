package domain

import (
	"time"

	"github.com/google/uuid"
)

// Merchant represents a registered merchant account. The core treats it as
// an opaque owner of wallet links and transactions; credentials live here
// because the HTTP adapter resolves API keys to merchants.
type Merchant struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	APIKey     string    `json:"api_key"`
	APIKeyHash string    `json:"-"` // Argon2id hash, never expose
	IsActive   bool      `json:"is_active"`
	RateLimit  int       `json:"rate_limit"` // Requests per minute
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
