package portfolio

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler drives the mirror's refresh cadence: quotes on a fast
// ticker, the full account pull on a slow one. Quote ticks are skipped
// while there is nothing worth refreshing. Manual refreshes through the
// API may overlap a tick; the mirror's wholesale replacement keeps that
// race benign.
type Scheduler struct {
	mirror     *Mirror
	quoteEvery time.Duration
	fullEvery  time.Duration
	log        *slog.Logger
}

// NewScheduler creates a Scheduler with the given cadences.
func NewScheduler(m *Mirror, quoteEvery, fullEvery time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{mirror: m, quoteEvery: quoteEvery, fullEvery: fullEvery, log: log}
}

// Run performs an initial full refresh, then ticks until ctx ends.
// Refresh failures are logged and retried on the next tick, never
// fatal.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.mirror.RefreshAll(ctx); err != nil {
		s.log.Warn("initial refresh failed", "err", err)
	}

	quoteT := time.NewTicker(s.quoteEvery)
	defer quoteT.Stop()
	fullT := time.NewTicker(s.fullEvery)
	defer fullT.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-quoteT.C:
			if !s.mirror.HasRefreshTargets() {
				continue
			}
			if err := s.mirror.RefreshPrices(ctx); err != nil {
				s.log.Warn("scheduled quote refresh failed", "err", err)
			}
		case <-fullT.C:
			if err := s.mirror.RefreshAll(ctx); err != nil {
				s.log.Warn("scheduled full refresh failed", "err", err)
			}
		}
	}
}
