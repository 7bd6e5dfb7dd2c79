package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"wallet-link-gateway/internal/core/domain"
	"wallet-link-gateway/internal/core/ports"
	"wallet-link-gateway/internal/core/ports/mocks"
	"wallet-link-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type paymentTestDeps struct {
	svc        *PaymentServiceImpl
	txRepo     *mocks.MockTransactionRepository
	linkRepo   *mocks.MockWalletLinkRepository
	registry   *mocks.MockProviderRegistry
	provider   *mocks.MockWalletProvider
	idempCache *mocks.MockIdempotencyCache
	auditSvc   *mocks.MockAuditService
	ctrl       *gomock.Controller
}

func setupPaymentService(t *testing.T) *paymentTestDeps {
	ctrl := gomock.NewController(t)
	d := &paymentTestDeps{
		txRepo:     mocks.NewMockTransactionRepository(ctrl),
		linkRepo:   mocks.NewMockWalletLinkRepository(ctrl),
		registry:   mocks.NewMockProviderRegistry(ctrl),
		provider:   mocks.NewMockWalletProvider(ctrl),
		idempCache: mocks.NewMockIdempotencyCache(ctrl),
		auditSvc:   mocks.NewMockAuditService(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewPaymentService(
		d.txRepo, d.linkRepo, d.registry, d.idempCache, d.auditSvc, zerolog.Nop(),
	)
	return d
}

func activeLink(merchantID uuid.UUID) *domain.WalletLink {
	expiry := time.Now().UTC().Add(300 * 24 * time.Hour)
	return &domain.WalletLink{
		ID:           uuid.New(),
		MerchantID:   merchantID,
		Provider:     "easypaisa",
		MobileNumber: "03001234567",
		Token:        "9876543210123456789",
		Status:       domain.WalletLinkStatusActive,
		ExpiresAt:    &expiry,
	}
}

// ==================== ChargeWallet Tests ====================

func TestPaymentService_ChargeWallet_Success(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchantID := uuid.New()
	link := activeLink(merchantID)
	amount := decimal.NewFromFloat(100.5)

	req := ports.ChargeRequest{
		MerchantID:      merchantID,
		WalletLinkID:    link.ID,
		MerchantOrderID: "ORDER-100",
		Amount:          amount,
	}
	idempKey := fmt.Sprintf(idempotencyKeyTmpl, "ORDER-100")

	// Redis cache miss
	d.idempCache.EXPECT().Get(ctx, idempKey).Return(nil, nil)
	// DB idempotency miss
	d.txRepo.EXPECT().GetByMerchantOrderID(ctx, "ORDER-100").Return(nil, nil)
	d.linkRepo.EXPECT().GetByID(ctx, link.ID).Return(link, nil)
	d.registry.EXPECT().Get("easypaisa").Return(d.provider, nil)
	// PROCESSING row written before the provider call
	d.txRepo.EXPECT().CreateIfAbsent(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, txn *domain.Transaction) (bool, *domain.Transaction, error) {
			assert.Equal(t, domain.TransactionStatusProcessing, txn.Status)
			assert.Equal(t, domain.TransactionTypePinlessPayment, txn.TransactionType)
			assert.NotContains(t, string(txn.RequestPayload), link.Token)
			return true, nil, nil
		})
	d.auditSvc.EXPECT().Record(ctx, domain.AuditActionPaymentProcessed, gomock.Any(), "transaction", gomock.Any(), gomock.Any())
	d.provider.EXPECT().ChargePinless(ctx, ports.PinlessChargeRequest{
		Token:        link.Token,
		MobileNumber: link.MobileNumber,
		OrderID:      "ORDER-100",
		Amount:       amount,
	}).Return(&ports.ChargeResult{
		ProviderResult: ports.ProviderResult{
			ResponseCode:    "0000",
			ResponseMessage: "SUCCESS",
			ProviderOrderID: "EP-500",
			Raw:             []byte(`{"responseCode":"0000"}`),
		},
	}, nil)
	d.txRepo.EXPECT().Update(ctx, gomock.Any()).Return(nil)
	d.idempCache.EXPECT().Set(ctx, idempKey, gomock.Any(), idempotencyTTL).Return(nil)
	d.auditSvc.EXPECT().Record(ctx, domain.AuditActionPaymentCompleted, gomock.Any(), "transaction", gomock.Any(), gomock.Any())

	txn, err := d.svc.ChargeWallet(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.Equal(t, domain.TransactionStatusCompleted, txn.Status)
	assert.Equal(t, "EP-500", txn.ProviderOrderID)
	assert.Equal(t, "0000", txn.ProviderResponseCode)
	require.NotNil(t, txn.CompletedAt)
}

func TestPaymentService_ChargeWallet_CachedIdempotentHit(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	cached := &domain.Transaction{
		ID:              uuid.New(),
		MerchantOrderID: "ORDER-101",
		Status:          domain.TransactionStatusCompleted,
	}
	respJSON, err := json.Marshal(cached)
	require.NoError(t, err)

	idempKey := fmt.Sprintf(idempotencyKeyTmpl, "ORDER-101")
	d.idempCache.EXPECT().Get(ctx, idempKey).Return(respJSON, nil)

	txn, err := d.svc.ChargeWallet(ctx, ports.ChargeRequest{
		MerchantID:      uuid.New(),
		WalletLinkID:    uuid.New(),
		MerchantOrderID: "ORDER-101",
		Amount:          decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	assert.Equal(t, cached.ID, txn.ID)
	assert.Equal(t, domain.TransactionStatusCompleted, txn.Status)
}

func TestPaymentService_ChargeWallet_DBIdempotentHit(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	existing := &domain.Transaction{
		ID:              uuid.New(),
		MerchantOrderID: "ORDER-102",
		Status:          domain.TransactionStatusProcessing,
	}
	idempKey := fmt.Sprintf(idempotencyKeyTmpl, "ORDER-102")

	d.idempCache.EXPECT().Get(ctx, idempKey).Return(nil, nil)
	d.txRepo.EXPECT().GetByMerchantOrderID(ctx, "ORDER-102").Return(existing, nil)

	txn, err := d.svc.ChargeWallet(ctx, ports.ChargeRequest{
		MerchantID:      uuid.New(),
		WalletLinkID:    uuid.New(),
		MerchantOrderID: "ORDER-102",
		Amount:          decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	// In-flight rows are returned as-is, never re-executed.
	assert.Equal(t, existing, txn)
}

func TestPaymentService_ChargeWallet_LosesInsertRace(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchantID := uuid.New()
	link := activeLink(merchantID)
	winner := &domain.Transaction{
		ID:              uuid.New(),
		MerchantOrderID: "ORDER-103",
		Status:          domain.TransactionStatusProcessing,
	}
	idempKey := fmt.Sprintf(idempotencyKeyTmpl, "ORDER-103")

	d.idempCache.EXPECT().Get(ctx, idempKey).Return(nil, nil)
	d.txRepo.EXPECT().GetByMerchantOrderID(ctx, "ORDER-103").Return(nil, nil)
	d.linkRepo.EXPECT().GetByID(ctx, link.ID).Return(link, nil)
	d.registry.EXPECT().Get("easypaisa").Return(d.provider, nil)
	d.txRepo.EXPECT().CreateIfAbsent(ctx, gomock.Any()).Return(false, winner, nil)
	// No provider call: the concurrent request owns the charge.

	txn, err := d.svc.ChargeWallet(ctx, ports.ChargeRequest{
		MerchantID:      merchantID,
		WalletLinkID:    link.ID,
		MerchantOrderID: "ORDER-103",
		Amount:          decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	assert.Equal(t, winner, txn)
}

func TestPaymentService_ChargeWallet_LinkNotActive(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchantID := uuid.New()
	link := activeLink(merchantID)
	link.Status = domain.WalletLinkStatusDeactivated
	idempKey := fmt.Sprintf(idempotencyKeyTmpl, "ORDER-104")

	d.idempCache.EXPECT().Get(ctx, idempKey).Return(nil, nil)
	d.txRepo.EXPECT().GetByMerchantOrderID(ctx, "ORDER-104").Return(nil, nil)
	d.linkRepo.EXPECT().GetByID(ctx, link.ID).Return(link, nil)

	_, err := d.svc.ChargeWallet(ctx, ports.ChargeRequest{
		MerchantID:      merchantID,
		WalletLinkID:    link.ID,
		MerchantOrderID: "ORDER-104",
		Amount:          decimal.NewFromInt(50),
	})
	require.Error(t, err)
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "VAL_001", appErr.Code)
}

func TestPaymentService_ChargeWallet_ExpiredLinkRejectedUntouched(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchantID := uuid.New()
	link := activeLink(merchantID)
	past := time.Now().UTC().Add(-time.Hour)
	link.ExpiresAt = &past
	idempKey := fmt.Sprintf(idempotencyKeyTmpl, "ORDER-105")

	d.idempCache.EXPECT().Get(ctx, idempKey).Return(nil, nil)
	d.txRepo.EXPECT().GetByMerchantOrderID(ctx, "ORDER-105").Return(nil, nil)
	d.linkRepo.EXPECT().GetByID(ctx, link.ID).Return(link, nil)
	// No Update expected: the sweeper moves overdue links to EXPIRED.

	_, err := d.svc.ChargeWallet(ctx, ports.ChargeRequest{
		MerchantID:      merchantID,
		WalletLinkID:    link.ID,
		MerchantOrderID: "ORDER-105",
		Amount:          decimal.NewFromInt(50),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
	assert.Equal(t, domain.WalletLinkStatusActive, link.Status)
}

func TestPaymentService_ChargeWallet_WrongMerchant(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	link := activeLink(uuid.New())
	idempKey := fmt.Sprintf(idempotencyKeyTmpl, "ORDER-106")

	d.idempCache.EXPECT().Get(ctx, idempKey).Return(nil, nil)
	d.txRepo.EXPECT().GetByMerchantOrderID(ctx, "ORDER-106").Return(nil, nil)
	d.linkRepo.EXPECT().GetByID(ctx, link.ID).Return(link, nil)

	_, err := d.svc.ChargeWallet(ctx, ports.ChargeRequest{
		MerchantID:      uuid.New(), // different merchant
		WalletLinkID:    link.ID,
		MerchantOrderID: "ORDER-106",
		Amount:          decimal.NewFromInt(50),
	})
	require.Error(t, err)
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "RES_001", appErr.Code)
}

func TestPaymentService_ChargeWallet_FailedOrderReplayedUnchanged(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	failed := &domain.Transaction{
		ID:              uuid.New(),
		MerchantOrderID: "ORDER-108",
		Status:          domain.TransactionStatusFailed,
		ErrorMessage:    "connection timed out",
	}
	idempKey := fmt.Sprintf(idempotencyKeyTmpl, "ORDER-108")

	d.idempCache.EXPECT().Get(ctx, idempKey).Return(nil, nil)
	d.txRepo.EXPECT().GetByMerchantOrderID(ctx, "ORDER-108").Return(failed, nil)
	// No link lookup, no provider call: a failed order id is replayed
	// as-is and a real retry takes a fresh order id.

	txn, err := d.svc.ChargeWallet(ctx, ports.ChargeRequest{
		MerchantID:      uuid.New(),
		WalletLinkID:    uuid.New(),
		MerchantOrderID: "ORDER-108",
		Amount:          decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	assert.Equal(t, failed, txn)
}

func TestPaymentService_ChargeWallet_ProviderRejection(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchantID := uuid.New()
	link := activeLink(merchantID)
	provErr := apperror.ProviderRejection(402, "Insufficient balance in customer wallet", "0013", "Low balance", false)
	idempKey := fmt.Sprintf(idempotencyKeyTmpl, "ORDER-107")

	d.idempCache.EXPECT().Get(ctx, idempKey).Return(nil, nil)
	d.txRepo.EXPECT().GetByMerchantOrderID(ctx, "ORDER-107").Return(nil, nil)
	d.linkRepo.EXPECT().GetByID(ctx, link.ID).Return(link, nil)
	d.registry.EXPECT().Get("easypaisa").Return(d.provider, nil)
	d.txRepo.EXPECT().CreateIfAbsent(ctx, gomock.Any()).Return(true, nil, nil)
	d.auditSvc.EXPECT().Record(ctx, domain.AuditActionPaymentProcessed, gomock.Any(), "transaction", gomock.Any(), gomock.Any())
	d.provider.EXPECT().ChargePinless(ctx, gomock.Any()).Return(nil, provErr)
	d.txRepo.EXPECT().Update(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, txn *domain.Transaction) error {
		assert.Equal(t, domain.TransactionStatusFailed, txn.Status)
		assert.Equal(t, "0013", txn.ProviderResponseCode)
		return nil
	})
	d.auditSvc.EXPECT().Record(ctx, domain.AuditActionPaymentFailed, gomock.Any(), "transaction", gomock.Any(), gomock.Any())

	_, err := d.svc.ChargeWallet(ctx, ports.ChargeRequest{
		MerchantID:      merchantID,
		WalletLinkID:    link.ID,
		MerchantOrderID: "ORDER-107",
		Amount:          decimal.NewFromInt(50),
	})
	assert.Equal(t, provErr, err)
}

func TestPaymentService_ChargeWallet_TransportErrorStaysRetryable(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchantID := uuid.New()
	link := activeLink(merchantID)
	netErr := apperror.ErrProviderUnavailable(errors.New("connection refused"))
	idempKey := fmt.Sprintf(idempotencyKeyTmpl, "ORDER-108")

	d.idempCache.EXPECT().Get(ctx, idempKey).Return(nil, nil)
	d.txRepo.EXPECT().GetByMerchantOrderID(ctx, "ORDER-108").Return(nil, nil)
	d.linkRepo.EXPECT().GetByID(ctx, link.ID).Return(link, nil)
	d.registry.EXPECT().Get("easypaisa").Return(d.provider, nil)
	d.txRepo.EXPECT().CreateIfAbsent(ctx, gomock.Any()).Return(true, nil, nil)
	d.auditSvc.EXPECT().Record(ctx, domain.AuditActionPaymentProcessed, gomock.Any(), "transaction", gomock.Any(), gomock.Any())
	d.provider.EXPECT().ChargePinless(ctx, gomock.Any()).Return(nil, netErr)
	d.txRepo.EXPECT().Update(ctx, gomock.Any()).Return(nil)
	d.auditSvc.EXPECT().Record(ctx, domain.AuditActionPaymentFailed, gomock.Any(), "transaction", gomock.Any(), gomock.Any())

	_, err := d.svc.ChargeWallet(ctx, ports.ChargeRequest{
		MerchantID:      merchantID,
		WalletLinkID:    link.ID,
		MerchantOrderID: "ORDER-108",
		Amount:          decimal.NewFromInt(50),
	})
	require.Error(t, err)
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.True(t, appErr.Retryable)
}

func TestPaymentService_ChargeWallet_MissingOrderID(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.ChargeWallet(context.Background(), ports.ChargeRequest{
		MerchantID:   uuid.New(),
		WalletLinkID: uuid.New(),
		Amount:       decimal.NewFromInt(50),
	})
	require.Error(t, err)
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "VAL_001", appErr.Code)
}

func TestPaymentService_ChargeWallet_NonPositiveAmount(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.ChargeWallet(context.Background(), ports.ChargeRequest{
		MerchantID:      uuid.New(),
		WalletLinkID:    uuid.New(),
		MerchantOrderID: "ORDER-109",
		Amount:          decimal.Zero,
	})
	require.Error(t, err)
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "VAL_001", appErr.Code)
}

// ==================== Query Tests ====================

func TestPaymentService_GetByMerchantOrderID_NotFound(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.txRepo.EXPECT().GetByMerchantOrderID(ctx, "MISSING").Return(nil, nil)

	_, err := d.svc.GetByMerchantOrderID(ctx, "MISSING")
	require.Error(t, err)
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "RES_001", appErr.Code)
}

func TestPaymentService_GetByProviderOrderID(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	txn := &domain.Transaction{ID: uuid.New(), ProviderOrderID: "EP-ORD-42"}

	d.txRepo.EXPECT().GetByProviderOrderID(ctx, "EP-ORD-42").Return(txn, nil)

	result, err := d.svc.GetByProviderOrderID(ctx, "EP-ORD-42")
	require.NoError(t, err)
	assert.Equal(t, txn, result)

	d.txRepo.EXPECT().GetByProviderOrderID(ctx, "MISSING").Return(nil, nil)
	_, err = d.svc.GetByProviderOrderID(ctx, "MISSING")
	require.Error(t, err)
	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, "RES_001", appErr.Code)
}

func TestPaymentService_IncrementRetry(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()
	txn := &domain.Transaction{ID: id, Status: domain.TransactionStatusFailed, RetryCount: 3}

	d.txRepo.EXPECT().IncrementRetry(ctx, id).Return(txn, nil)

	result, err := d.svc.IncrementRetry(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, result.RetryCount)

	missing := uuid.New()
	d.txRepo.EXPECT().IncrementRetry(ctx, missing).Return(nil, nil)
	_, err = d.svc.IncrementRetry(ctx, missing)
	require.Error(t, err)
}

func TestPaymentService_List_DefaultsPagination(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchantID := uuid.New()

	d.txRepo.EXPECT().List(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, params ports.TransactionListParams) ([]domain.Transaction, int64, error) {
			assert.Equal(t, 1, params.Page)
			assert.Equal(t, 50, params.PageSize)
			return []domain.Transaction{}, 0, nil
		})

	_, _, err := d.svc.List(ctx, ports.TransactionListParams{MerchantID: merchantID})
	require.NoError(t, err)
}

func TestPaymentService_GetStats(t *testing.T) {
	d := setupPaymentService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	merchantID := uuid.New()
	stats := &ports.TransactionStats{
		TotalTransactions:      10,
		SuccessfulTransactions: 8,
		FailedTransactions:     2,
		TotalAmount:            decimal.NewFromInt(1000),
		SuccessfulAmount:       decimal.NewFromInt(800),
	}

	d.txRepo.EXPECT().GetStats(ctx, merchantID, nil, nil).Return(stats, nil)

	result, err := d.svc.GetStats(ctx, merchantID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, stats, result)
}
