// Package httpapi exposes the portfolio mirror to UI callers: a JSON
// REST API for state and actions, and a WebSocket stream pushing mirror
// events.
package httpapi

import (
	"github.com/Open-Papertrade/papertrade/internal/domain"
	"github.com/Open-Papertrade/papertrade/internal/fx"
)

// OrderRequest is the body for POST /api/orders.
type OrderRequest struct {
	Symbol     string           `json:"symbol"`
	Side       domain.OrderSide `json:"side"`
	Shares     int64            `json:"shares"`
	LimitPrice float64          `json:"limitPrice"`
	Currency   string           `json:"currency,omitempty"`
}

// TradeRequest is the body for POST /api/trades.
type TradeRequest struct {
	Symbol   string           `json:"symbol"`
	Side     domain.OrderSide `json:"side"`
	Shares   int64            `json:"shares"`
	Currency string           `json:"currency,omitempty"`
}

// AlertRequest is the body for POST /api/alerts.
type AlertRequest struct {
	Symbol      string                `json:"symbol"`
	Condition   domain.AlertCondition `json:"condition"`
	TargetPrice float64               `json:"targetPrice"`
}

// OrderResponse answers order placement.
type OrderResponse struct {
	Order       domain.Order `json:"order"`
	BuyingPower float64      `json:"buyingPower"`
}

// OrdersResponse lists pending orders.
type OrdersResponse struct {
	Orders []domain.Order `json:"orders"`
}

// HoldingsResponse lists holdings.
type HoldingsResponse struct {
	Holdings []domain.Holding `json:"holdings"`
}

// QuotesResponse maps symbols to cached quotes.
type QuotesResponse struct {
	Quotes map[string]domain.Quote `json:"quotes"`
}

// AccountResponse wraps the account snapshot.
type AccountResponse struct {
	Account domain.Account `json:"account"`
}

// RatesResponse wraps the rate table.
type RatesResponse struct {
	Rates fx.Rates `json:"rates"`
}

// WatchlistResponse lists watched symbols.
type WatchlistResponse struct {
	Symbols []string `json:"symbols"`
}

// AlertsResponse lists alerts.
type AlertsResponse struct {
	Alerts []domain.Alert `json:"alerts"`
}

// ValuesResponse lists portfolio value samples.
type ValuesResponse struct {
	Values []domain.ValuePoint `json:"values"`
}

// TradesResponse lists executed trades from the history log.
type TradesResponse struct {
	Trades []domain.Trade `json:"trades"`
}
