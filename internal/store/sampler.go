package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/Open-Papertrade/papertrade/internal/domain"
	"github.com/Open-Papertrade/papertrade/internal/portfolio"
)

// Sampler records the mirror's history: a portfolio value sample at most
// once per interval, and every executed trade as it happens. It consumes
// mirror events so it sees exactly what subscribers of the live stream
// see.
type Sampler struct {
	mirror   *portfolio.Mirror
	values   ValueStore
	trades   TradeLog
	interval time.Duration
	log      *slog.Logger

	lastSample time.Time
}

// NewSampler creates a Sampler writing to the given stores.
func NewSampler(m *portfolio.Mirror, values ValueStore, trades TradeLog,
	interval time.Duration, log *slog.Logger) *Sampler {
	return &Sampler{mirror: m, values: values, trades: trades, interval: interval, log: log}
}

// Run subscribes to the mirror and records events until ctx ends.
func (s *Sampler) Run(ctx context.Context) error {
	id, events := s.mirror.Subscribe(64)
	defer s.mirror.Unsubscribe(id)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-events:
			if !ok {
				return nil
			}
			s.handle(ctx, e)
		}
	}
}

// handle records one mirror event. Write failures are logged and
// dropped; history is best-effort, never in the refresh path.
func (s *Sampler) handle(ctx context.Context, e portfolio.Event) {
	switch e.Type {
	case portfolio.EventPortfolio:
		if e.Summary == nil || time.Since(s.lastSample) < s.interval {
			return
		}
		point := domain.ValuePoint{
			At:       e.Summary.AsOf,
			Value:    e.Summary.HoldingsValue,
			Invested: e.Summary.TotalInvested,
			Currency: e.Summary.Currency,
		}
		if err := s.values.AppendValues(ctx, []domain.ValuePoint{point}); err != nil {
			s.log.Warn("appending value sample", "err", err)
			return
		}
		s.lastSample = time.Now()

	case portfolio.EventFill:
		if e.Trade == nil {
			return
		}
		if err := s.trades.AppendTrades(ctx, []domain.Trade{*e.Trade}); err != nil {
			s.log.Warn("appending trade record", "err", err)
		}
	}
}
