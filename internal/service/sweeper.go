package service

import (
	"context"
	"time"

	"wallet-link-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// Sweeper periodically expires wallet links whose validity window has
// passed. Link expiry is also checked inline at charge time; the sweeper
// keeps the stored state honest for links nobody is charging.
type Sweeper struct {
	linkSvc  ports.WalletLinkService
	interval time.Duration
	log      zerolog.Logger
}

// NewSweeper creates a sweeper. A non-positive interval defaults to an hour.
func NewSweeper(linkSvc ports.WalletLinkService, interval time.Duration, log zerolog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{linkSvc: linkSvc, interval: interval, log: log}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("link expiry sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("link expiry sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.linkSvc.SweepExpired(ctx); err != nil {
				s.log.Error().Err(err).Msg("link expiry sweep failed")
			}
		}
	}
}
