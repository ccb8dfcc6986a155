// Package papertrade is the Go SDK for the papertrade-server HTTP API.
// It carries its own wire types so importers outside this module can use
// it without reaching into internal packages.
package papertrade

import "time"

// OrderSide distinguishes buys from sells.
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// Quote is the latest observed market state for one symbol.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Currency      string    `json:"currency"`
	AsOf          time.Time `json:"asOf"`
}

// Holding is one position in the account.
type Holding struct {
	Symbol        string  `json:"symbol"`
	Shares        int64   `json:"shares"`
	AvgCost       float64 `json:"avgCost"`
	Currency      string  `json:"currency"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// Order is a trade instruction.
type Order struct {
	ID         string    `json:"id"`
	Side       OrderSide `json:"side"`
	Kind       string    `json:"kind"`
	Symbol     string    `json:"symbol"`
	Shares     int64     `json:"shares"`
	LimitPrice float64   `json:"limitPrice,omitempty"`
	Currency   string    `json:"currency"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	FilledAt   time.Time `json:"filledAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Alert is an advisory price watch.
type Alert struct {
	ID           string  `json:"id"`
	Symbol       string  `json:"symbol"`
	Condition    string  `json:"condition"`
	TargetPrice  float64 `json:"targetPrice"`
	CurrentPrice float64 `json:"currentPrice"`
	Enabled      bool    `json:"enabled"`
}

// Account is the user's account state.
type Account struct {
	BuyingPower     float64 `json:"buyingPower"`
	DisplayCurrency string  `json:"displayCurrency"`
	DisplayMarket   string  `json:"displayMarket"`
	XP              int64   `json:"xp"`
	Level           int     `json:"level"`
	Rank            string  `json:"rank"`
}

// Trade is an executed transaction.
type Trade struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"orderId,omitempty"`
	Side       OrderSide `json:"side"`
	Symbol     string    `json:"symbol"`
	Shares     int64     `json:"shares"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency"`
	XP         int64     `json:"xp"`
	ExecutedAt time.Time `json:"executedAt"`
}

// TradeResult is the server's response to an immediate execution.
type TradeResult struct {
	Trade           Trade    `json:"trade"`
	BuyingPower     float64  `json:"buyingPower"`
	XP              int64    `json:"xp"`
	Level           int      `json:"level"`
	Rank            string   `json:"rank"`
	NewAchievements []string `json:"newAchievements,omitempty"`
}

// MarketStatus reports whether an exchange is currently open.
type MarketStatus struct {
	Open     bool   `json:"open"`
	Reason   string `json:"reason,omitempty"`
	Exchange string `json:"exchange"`
	Hours    string `json:"hours,omitempty"`
}

// Notification is one entry from the server's notification queue.
type Notification struct {
	Kind    string    `json:"kind"`
	Title   string    `json:"title"`
	Body    string    `json:"body,omitempty"`
	XPDelta int64     `json:"xpDelta,omitempty"`
	Level   int       `json:"level,omitempty"`
	Rank    string    `json:"rank,omitempty"`
	At      time.Time `json:"at"`
}

// ValuePoint is one sample of total portfolio value.
type ValuePoint struct {
	At       time.Time `json:"at"`
	Value    float64   `json:"value"`
	Invested float64   `json:"invested"`
	Currency string    `json:"currency"`
}

// HoldingView is a holding enriched with quote data in the display
// currency.
type HoldingView struct {
	Holding
	Price          float64 `json:"price"`
	Value          float64 `json:"value"`
	Invested       float64 `json:"invested"`
	Returns        float64 `json:"returns"`
	ReturnsPercent float64 `json:"returnsPercent"`
	DayGain        float64 `json:"dayGain"`
}

// PortfolioSummary is the aggregate view of all holdings.
type PortfolioSummary struct {
	Currency       string        `json:"currency"`
	HoldingsValue  float64       `json:"holdingsValue"`
	TotalInvested  float64       `json:"totalInvested"`
	TotalReturns   float64       `json:"totalReturns"`
	ReturnsPercent float64       `json:"returnsPercent"`
	DayGain        float64       `json:"dayGain"`
	DayGainPercent float64       `json:"dayGainPercent"`
	BuyingPower    float64       `json:"buyingPower"`
	Holdings       []HoldingView `json:"holdings"`
	AsOf           time.Time     `json:"asOf"`
}

// OrderRequest is the body for placing a limit order.
type OrderRequest struct {
	Symbol     string    `json:"symbol"`
	Side       OrderSide `json:"side"`
	Shares     int64     `json:"shares"`
	LimitPrice float64   `json:"limitPrice"`
	Currency   string    `json:"currency,omitempty"`
}

// TradeRequest is the body for an immediate market execution.
type TradeRequest struct {
	Symbol   string    `json:"symbol"`
	Side     OrderSide `json:"side"`
	Shares   int64     `json:"shares"`
	Currency string    `json:"currency,omitempty"`
}

// AlertRequest is the body for creating an alert.
type AlertRequest struct {
	Symbol      string  `json:"symbol"`
	Condition   string  `json:"condition"`
	TargetPrice float64 `json:"targetPrice"`
}

// EventType labels stream events.
type EventType string

const (
	EventSnapshot     EventType = "snapshot"
	EventPortfolio    EventType = "portfolio"
	EventFill         EventType = "fill"
	EventNotification EventType = "notification"
	EventAlert        EventType = "alert"
)

// Event is one frame from the /api/stream WebSocket. Exactly one payload
// field is set, matching Type.
type Event struct {
	Type         EventType         `json:"type"`
	Summary      *PortfolioSummary `json:"summary,omitempty"`
	Order        *Order            `json:"order,omitempty"`
	Trade        *Trade            `json:"trade,omitempty"`
	Notification *Notification     `json:"notification,omitempty"`
	Alert        *Alert            `json:"alert,omitempty"`
}
