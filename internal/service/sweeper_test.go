package service

import (
	"context"
	"testing"
	"time"

	"wallet-link-gateway/internal/core/ports/mocks"

	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"
)

func TestSweeper_RunSweepsUntilCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	linkSvc := mocks.NewMockWalletLinkService(ctrl)

	swept := make(chan struct{})
	linkSvc.EXPECT().SweepExpired(gomock.Any()).DoAndReturn(
		func(ctx context.Context) (int64, error) {
			select {
			case swept <- struct{}{}:
			default:
			}
			return 1, nil
		},
	).MinTimes(1)

	sweeper := NewSweeper(linkSvc, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper never ran")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
}

func TestSweeper_DefaultInterval(t *testing.T) {
	sweeper := NewSweeper(nil, 0, zerolog.Nop())
	if sweeper.interval != time.Hour {
		t.Fatalf("expected default interval of 1h, got %s", sweeper.interval)
	}
}
