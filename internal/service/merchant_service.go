package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"wallet-link-gateway/internal/core/domain"
	"wallet-link-gateway/internal/core/ports"
	"wallet-link-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	apiKeyPrefix = "mypay_"
	// apiKeyLookupLen is the number of leading characters stored in
	// plaintext for index lookup. The full key is only stored hashed.
	apiKeyLookupLen = 14

	defaultRateLimit = 60
)

type merchantService struct {
	merchantRepo ports.MerchantRepository
	hashSvc      ports.HashService
	auditSvc     ports.AuditService
	log          zerolog.Logger
}

// NewMerchantService creates a new merchant management service.
func NewMerchantService(
	merchantRepo ports.MerchantRepository,
	hashSvc ports.HashService,
	auditSvc ports.AuditService,
	log zerolog.Logger,
) ports.MerchantService {
	return &merchantService{
		merchantRepo: merchantRepo,
		hashSvc:      hashSvc,
		auditSvc:     auditSvc,
		log:          log,
	}
}

// Authenticate resolves an API key to an active merchant. Lookup goes
// through the key's plaintext prefix; the full key is checked against the
// stored Argon2id hash.
func (s *merchantService) Authenticate(ctx context.Context, apiKey string) (*domain.Merchant, error) {
	if !strings.HasPrefix(apiKey, apiKeyPrefix) || len(apiKey) < apiKeyLookupLen {
		return nil, apperror.ErrInvalidAPIKey()
	}

	merchant, err := s.merchantRepo.GetByAPIKey(ctx, apiKey[:apiKeyLookupLen])
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lookup api key: %w", err))
	}
	if merchant == nil {
		s.auditSvc.Record(ctx, domain.AuditActionAPIKeyInvalid, nil, "merchant", "", nil)
		return nil, apperror.ErrInvalidAPIKey()
	}

	ok, err := s.hashSvc.Verify(apiKey, merchant.APIKeyHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify api key: %w", err))
	}
	if !ok {
		s.auditSvc.Record(ctx, domain.AuditActionAPIKeyInvalid, &merchant.ID, "merchant", merchant.ID.String(), nil)
		return nil, apperror.ErrInvalidAPIKey()
	}

	if !merchant.IsActive {
		return nil, apperror.ErrMerchantInactive()
	}

	if err := s.merchantRepo.TouchLastUsed(ctx, merchant.ID); err != nil {
		s.log.Warn().Err(err).Str("merchant_id", merchant.ID.String()).Msg("failed to update last_used_at")
	}

	return merchant, nil
}

// Create provisions a merchant and returns the plaintext API key exactly
// once. The key cannot be recovered afterwards.
func (s *merchantService) Create(ctx context.Context, name string, rateLimit int) (*domain.Merchant, string, error) {
	if name == "" {
		return nil, "", apperror.Validation("merchant name is required")
	}
	if rateLimit <= 0 {
		rateLimit = defaultRateLimit
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		return nil, "", apperror.InternalError(fmt.Errorf("generate api key: %w", err))
	}

	hash, err := s.hashSvc.Hash(apiKey)
	if err != nil {
		return nil, "", apperror.InternalError(fmt.Errorf("hash api key: %w", err))
	}

	now := time.Now().UTC()
	merchant := &domain.Merchant{
		ID:         uuid.New(),
		Name:       name,
		APIKey:     apiKey[:apiKeyLookupLen],
		APIKeyHash: hash,
		IsActive:   true,
		RateLimit:  rateLimit,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.merchantRepo.Create(ctx, merchant); err != nil {
		return nil, "", err
	}

	s.auditSvc.Record(ctx, domain.AuditActionMerchantCreated, &merchant.ID, "merchant", merchant.ID.String(), map[string]any{
		"name": name,
	})

	s.log.Info().Str("merchant_id", merchant.ID.String()).Str("name", name).Msg("merchant created")
	return merchant, apiKey, nil
}

// GetByID fetches a merchant.
func (s *merchantService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("merchant")
	}
	return merchant, nil
}

func generateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return apiKeyPrefix + hex.EncodeToString(b), nil
}
