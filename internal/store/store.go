// Package store persists derived portfolio observations — periodic
// value samples and the executed-trade log — for charts and offline
// inspection. Nothing here is account truth: the account service owns
// balances and holdings, and this store only records what the mirror
// observed.
package store

import (
	"context"
	"time"

	"github.com/Open-Papertrade/papertrade/internal/domain"
)

// ValueStore persists and retrieves portfolio value samples.
type ValueStore interface {
	// AppendValues persists a batch of value samples.
	AppendValues(ctx context.Context, points []domain.ValuePoint) error

	// ReadValues returns samples within [start, end].
	ReadValues(ctx context.Context, start, end time.Time) ([]domain.ValuePoint, error)
}

// TradeLog persists and retrieves executed trades.
type TradeLog interface {
	// AppendTrades persists a batch of executed trades.
	AppendTrades(ctx context.Context, trades []domain.Trade) error

	// ReadTrades returns trades executed within [start, end].
	ReadTrades(ctx context.Context, start, end time.Time) ([]domain.Trade, error)
}
