package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wallet-link-gateway/internal/core/domain"
	"wallet-link-gateway/internal/core/ports"
	"wallet-link-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	idempotencyTTL     = 24 * time.Hour
	idempotencyKeyTmpl = "idem:charge:%s"
)

// PaymentServiceImpl implements ports.PaymentService.
type PaymentServiceImpl struct {
	txRepo     ports.TransactionRepository
	linkRepo   ports.WalletLinkRepository
	registry   ports.ProviderRegistry
	idempCache ports.IdempotencyCache
	auditSvc   ports.AuditService
	log        zerolog.Logger
}

// NewPaymentService creates a new PaymentServiceImpl.
func NewPaymentService(
	txRepo ports.TransactionRepository,
	linkRepo ports.WalletLinkRepository,
	registry ports.ProviderRegistry,
	idempCache ports.IdempotencyCache,
	auditSvc ports.AuditService,
	log zerolog.Logger,
) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		txRepo:     txRepo,
		linkRepo:   linkRepo,
		registry:   registry,
		idempCache: idempCache,
		auditSvc:   auditSvc,
		log:        log,
	}
}

// ChargeWallet executes a pinless debit against an ACTIVE wallet link.
// merchant_order_id is the idempotency key: a repeat call returns the
// recorded transaction, terminal or in flight, and never re-debits.
func (s *PaymentServiceImpl) ChargeWallet(ctx context.Context, req ports.ChargeRequest) (*domain.Transaction, error) {
	if req.MerchantOrderID == "" {
		return nil, apperror.Validation("merchant order id is required")
	}
	if !req.Amount.IsPositive() {
		return nil, apperror.Validation("amount must be positive")
	}

	idempKey := fmt.Sprintf(idempotencyKeyTmpl, req.MerchantOrderID)

	// Layer 1: Redis idempotency check
	cached, err := s.idempCache.Get(ctx, idempKey)
	if err != nil {
		s.log.Warn().Err(err).Str("key", idempKey).Msg("redis idempotency check failed, falling through to DB")
	}
	if cached != nil {
		return s.unmarshalCachedTransaction(cached)
	}

	// Layer 2: DB idempotency check. The recorded row is replayed as-is
	// whatever its outcome; retrying a failed charge takes a fresh
	// merchant_order_id.
	existing, err := s.txRepo.GetByMerchantOrderID(ctx, req.MerchantOrderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	if existing != nil {
		return existing, nil
	}

	link, err := s.linkRepo.GetByID(ctx, req.WalletLinkID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet link: %w", err))
	}
	if link == nil {
		return nil, apperror.ErrNotFound("wallet link")
	}
	if link.MerchantID != req.MerchantID {
		return nil, apperror.ErrNotFound("wallet link")
	}
	if link.Status != domain.WalletLinkStatusActive {
		return nil, apperror.Validation(fmt.Sprintf("wallet link is not active: %s", link.Status))
	}
	// Link state transitions belong to the link service and its sweeper;
	// an overdue link is rejected here without being touched.
	if link.ExpiresAt != nil && time.Now().UTC().After(*link.ExpiresAt) {
		return nil, apperror.Validation("wallet link has expired")
	}

	prov, err := s.registry.Get(link.Provider)
	if err != nil {
		return nil, err
	}

	// The PROCESSING row is written before the provider call so a crash
	// mid-flight leaves evidence instead of silently retrying the debit.
	now := time.Now().UTC()
	amount := req.Amount
	reqPayload, _ := json.Marshal(map[string]any{
		"wallet_link_id": link.ID.String(),
		"token":          domain.MaskToken(link.Token),
		"amount":         domain.FormatAmount(amount),
		"mobile_number":  link.MobileNumber,
	})
	txn := &domain.Transaction{
		ID:              uuid.New(),
		MerchantID:      req.MerchantID,
		WalletLinkID:    &link.ID,
		MerchantOrderID: req.MerchantOrderID,
		TransactionType: domain.TransactionTypePinlessPayment,
		Amount:          &amount,
		MobileNumber:    link.MobileNumber,
		Status:          domain.TransactionStatusProcessing,
		RequestPayload:  reqPayload,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	inserted, winner, err := s.txRepo.CreateIfAbsent(ctx, txn)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transaction: %w", err))
	}
	if !inserted {
		// Lost the race: another request owns this merchant_order_id.
		return winner, nil
	}

	s.auditSvc.Record(ctx, domain.AuditActionPaymentProcessed, &req.MerchantID, "transaction", txn.ID.String(), map[string]any{
		"merchant_order_id": req.MerchantOrderID,
		"amount":            domain.FormatAmount(amount),
	})

	res, err := prov.ChargePinless(ctx, ports.PinlessChargeRequest{
		Token:        link.Token,
		MobileNumber: link.MobileNumber,
		OrderID:      req.MerchantOrderID,
		Amount:       amount,
		EmailAddress: req.EmailAddress,
	})
	if err != nil {
		return s.recordChargeFailure(ctx, txn, err)
	}

	completedAt := time.Now().UTC()
	txn.Status = domain.TransactionStatusCompleted
	txn.ProviderOrderID = res.ProviderOrderID
	txn.ProviderResponseCode = res.ResponseCode
	txn.ProviderResponseMessage = res.ResponseMessage
	txn.ResponsePayload = res.Raw
	txn.CompletedAt = &completedAt
	txn.UpdatedAt = completedAt

	if err := s.txRepo.Update(ctx, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("complete transaction: %w", err))
	}

	// Post-process: cache in Redis (best-effort)
	if respJSON, marshalErr := json.Marshal(txn); marshalErr == nil {
		if err := s.idempCache.Set(ctx, idempKey, respJSON, idempotencyTTL); err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache idempotency in redis")
		}
	}

	s.auditSvc.Record(ctx, domain.AuditActionPaymentCompleted, &req.MerchantID, "transaction", txn.ID.String(), map[string]any{
		"merchant_order_id": req.MerchantOrderID,
		"provider_order_id": txn.ProviderOrderID,
	})

	s.log.Info().
		Str("tx_id", txn.ID.String()).
		Str("merchant_id", req.MerchantID.String()).
		Str("amount", domain.FormatAmount(amount)).
		Msg("pinless payment completed")

	return txn, nil
}

// recordChargeFailure moves the PROCESSING row to FAILED and re-raises the
// provider error. Transport failures keep their retryable classification so
// the caller can decide whether to retry with the same merchant_order_id.
func (s *PaymentServiceImpl) recordChargeFailure(ctx context.Context, txn *domain.Transaction, provErr error) (*domain.Transaction, error) {
	now := time.Now().UTC()
	txn.Status = domain.TransactionStatusFailed
	txn.ErrorMessage = provErr.Error()
	txn.UpdatedAt = now

	if appErr, ok := provErr.(*apperror.AppError); ok {
		txn.ProviderResponseCode = appErr.ProviderCode
		txn.ProviderResponseMessage = appErr.ProviderMessage
	}

	if err := s.txRepo.Update(ctx, txn); err != nil {
		s.log.Error().Err(err).Str("tx_id", txn.ID.String()).Msg("failed to record charge failure")
	}

	s.auditSvc.Record(ctx, domain.AuditActionPaymentFailed, &txn.MerchantID, "transaction", txn.ID.String(), map[string]any{
		"merchant_order_id": txn.MerchantOrderID,
		"error":             provErr.Error(),
	})

	return nil, provErr
}

// GetByID fetches a transaction.
func (s *PaymentServiceImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	return txn, nil
}

// GetByMerchantOrderID fetches a transaction by its idempotency key.
func (s *PaymentServiceImpl) GetByMerchantOrderID(ctx context.Context, merchantOrderID string) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByMerchantOrderID(ctx, merchantOrderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	return txn, nil
}

// List returns a filtered, paginated transaction history.
func (s *PaymentServiceImpl) List(ctx context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.PageSize <= 0 || params.PageSize > 200 {
		params.PageSize = 50
	}
	txns, total, err := s.txRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}
	return txns, total, nil
}

// GetByProviderOrderID fetches a transaction by the order id the provider
// reported, for support lookups against provider-side records.
func (s *PaymentServiceImpl) GetByProviderOrderID(ctx context.Context, providerOrderID string) (*domain.Transaction, error) {
	txn, err := s.txRepo.GetByProviderOrderID(ctx, providerOrderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get transaction: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	return txn, nil
}

// GetStats returns aggregated pinless-payment statistics for a merchant.
func (s *PaymentServiceImpl) GetStats(ctx context.Context, merchantID uuid.UUID, from, to *time.Time) (*ports.TransactionStats, error) {
	stats, err := s.txRepo.GetStats(ctx, merchantID, from, to)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("transaction stats: %w", err))
	}
	return stats, nil
}

// IncrementRetry records a merchant-initiated retry on a failed charge.
// The retry itself runs as a fresh ChargeWallet under a new order id; only
// the bookkeeping lands on the original row.
func (s *PaymentServiceImpl) IncrementRetry(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	txn, err := s.txRepo.IncrementRetry(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("increment retry: %w", err))
	}
	if txn == nil {
		return nil, apperror.ErrNotFound("transaction")
	}
	return txn, nil
}

// unmarshalCachedTransaction deserializes a cached transaction.
func (s *PaymentServiceImpl) unmarshalCachedTransaction(data []byte) (*domain.Transaction, error) {
	txn := &domain.Transaction{}
	if err := json.Unmarshal(data, txn); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached tx: %w", err))
	}
	return txn, nil
}
