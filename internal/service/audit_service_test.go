package service

import (
	"context"
	"testing"
	"time"

	"wallet-link-gateway/internal/core/domain"
	"wallet-link-gateway/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"
)

func TestAuditService_Record_PersistsToRepo(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockAuditRepository(ctrl)
	svc := NewAuditService(mockRepo, zerolog.Nop())

	done := make(chan struct{})
	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, log *domain.AuditLog) error {
			if log.Action != domain.AuditActionWalletLinked {
				t.Errorf("expected wallet.linked, got %s", log.Action)
			}
			if log.Metadata == "" {
				t.Error("expected metadata to be serialized")
			}
			close(done)
			return nil
		},
	)

	merchantID := uuid.New()
	svc.Record(context.Background(), domain.AuditActionWalletLinked, &merchantID, "wallet_link", uuid.NewString(), map[string]any{
		"merchant_order_id": "ORDER-001",
	})

	select {
	case <-done:
		// OK
	case <-time.After(2 * time.Second):
		t.Fatal("audit log not persisted in time")
	}
}

func TestAuditService_Record_NilRepo(t *testing.T) {
	svc := NewAuditService(nil, zerolog.Nop())

	merchantID := uuid.New()
	// Should not panic
	svc.Record(context.Background(), domain.AuditActionPaymentCompleted, &merchantID, "transaction", uuid.NewString(), nil)

	time.Sleep(50 * time.Millisecond) // let goroutine run
}

func TestAuditService_ListByMerchant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockAuditRepository(ctrl)
	svc := NewAuditService(mockRepo, zerolog.Nop())

	merchantID := uuid.New()
	logs := []domain.AuditLog{
		{ID: uuid.New(), MerchantID: &merchantID, Action: domain.AuditActionPaymentCompleted},
	}
	mockRepo.EXPECT().ListByMerchant(gomock.Any(), merchantID, 25, 0).Return(logs, int64(1), nil)

	got, total, err := svc.ListByMerchant(context.Background(), merchantID, 25, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(got) != 1 {
		t.Fatalf("expected 1 log, got %d (total %d)", len(got), total)
	}
}

func TestAuditService_ListByMerchant_DefaultsLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockAuditRepository(ctrl)
	svc := NewAuditService(mockRepo, zerolog.Nop())

	merchantID := uuid.New()
	mockRepo.EXPECT().ListByMerchant(gomock.Any(), merchantID, 50, 0).Return(nil, int64(0), nil)

	_, _, err := svc.ListByMerchant(context.Background(), merchantID, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAuditService_ListByMerchant_NilRepo(t *testing.T) {
	svc := NewAuditService(nil, zerolog.Nop())

	logs, total, err := svc.ListByMerchant(context.Background(), uuid.New(), 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if logs != nil || total != 0 {
		t.Fatalf("expected empty result, got %d (total %d)", len(logs), total)
	}
}
