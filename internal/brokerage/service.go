// Package brokerage defines the account/price service the portfolio
// mirror reconciles against, and provides two implementations: an HTTP
// client for a remote service and an embedded SQLite-backed simulator
// for offline use.
package brokerage

import (
	"context"
	"errors"
	"time"

	"github.com/Open-Papertrade/papertrade/internal/domain"
	"github.com/Open-Papertrade/papertrade/internal/fx"
)

// Business-rule rejections. These are user-facing conditions, not
// faults: callers surface the reason and leave state untouched.
var (
	ErrInsufficientFunds  = errors.New("insufficient buying power")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrOrderNotPending    = errors.New("order is not pending")
	ErrUnknownOrder       = errors.New("unknown order")
)

// TradeRequest describes a market execution or a limit order placement.
type TradeRequest struct {
	Symbol     string           `json:"symbol"`
	Side       domain.OrderSide `json:"side"`
	Kind       domain.OrderKind `json:"kind"`
	Shares     int64            `json:"shares"`
	LimitPrice float64          `json:"limitPrice,omitempty"`
	Currency   string           `json:"currency,omitempty"`
	ExpiresAt  time.Time        `json:"expiresAt,omitempty"`
}

// Service is the account/price service consumed as a black box. The
// service owns all account truth: balances, holdings, and order state
// persist there, and every response carries authoritative values that
// replace local optimistic state wholesale.
type Service interface {
	// Name returns the backend identifier ("remote", "simulator").
	Name() string

	// GetQuotes returns the latest quote per requested symbol. Symbols
	// the service cannot price are absent from the result, not an error.
	GetQuotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error)

	// GetHoldings returns all holdings in the account.
	GetHoldings(ctx context.Context) ([]domain.Holding, error)

	// GetPendingOrders returns orders still eligible for matching.
	GetPendingOrders(ctx context.Context) ([]domain.Order, error)

	// CreateOrder places a limit order, reserving buying power for buys.
	// It returns the created order and the post-reservation buying power.
	CreateOrder(ctx context.Context, req TradeRequest) (domain.Order, float64, error)

	// FillOrder executes a pending limit order at the observed market
	// price. Filling an order that is no longer pending returns
	// ErrOrderNotPending.
	FillOrder(ctx context.Context, id string, observedPrice float64) (domain.TradeResult, error)

	// CancelOrder cancels a pending order, restoring any reservation,
	// and returns the post-cancellation buying power.
	CancelOrder(ctx context.Context, id string) (float64, error)

	// ExecuteTrade runs an immediate market execution.
	ExecuteTrade(ctx context.Context, req TradeRequest) (domain.TradeResult, error)

	// GetAccount returns the account snapshot.
	GetAccount(ctx context.Context) (domain.Account, error)

	// MarketStatus reports whether the exchange is open, naming the
	// holiday when it is closed for one.
	MarketStatus(ctx context.Context, exchange string) (open bool, holiday string, err error)

	// GetExchangeRates returns the USD-pivot rate table.
	GetExchangeRates(ctx context.Context) (fx.Rates, error)
}
