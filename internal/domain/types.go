// Package domain defines the core types shared across the papertrade
// services: quotes, holdings, orders, alerts, account state, and the
// results of trade execution.
package domain

import "time"

// OrderSide distinguishes buys from sells.
type OrderSide string

// OrderKind distinguishes immediate market execution from resting limit
// orders.
type OrderKind string

// OrderStatus tracks an order through its one-way lifecycle.
type OrderStatus string

// AlertCondition selects which side of the target price triggers an alert.
type AlertCondition string

// NotificationKind labels entries in the notification queue.
type NotificationKind string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"

	OrderKindMarket OrderKind = "MARKET"
	OrderKindLimit  OrderKind = "LIMIT"

	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusExpired   OrderStatus = "EXPIRED"

	AlertAbove AlertCondition = "above"
	AlertBelow AlertCondition = "below"

	NotificationXP    NotificationKind = "xp"
	NotificationFill  NotificationKind = "fill"
	NotificationAlert NotificationKind = "alert"
)

// Quote is the latest observed market state for one symbol. Quotes are
// ephemeral: each refresh replaces the batch wholesale, and entries are
// never merged field-by-field across symbols.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Currency      string    `json:"currency"`
	AsOf          time.Time `json:"asOf"`
}

// Holding is one position in the account mirror. Shares never go
// negative; a holding is created on first buy and removed when shares
// reach zero. Change and ChangePercent are carried from the last quote
// for display and are not authoritative.
type Holding struct {
	Symbol        string  `json:"symbol"`
	Shares        int64   `json:"shares"`
	AvgCost       float64 `json:"avgCost"`
	Currency      string  `json:"currency"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"changePercent"`
}

// Order is a trade instruction. Only PENDING orders participate in limit
// matching; FILLED and CANCELLED orders are immutable.
type Order struct {
	ID         string      `json:"id"`
	Side       OrderSide   `json:"side"`
	Kind       OrderKind   `json:"kind"`
	Symbol     string      `json:"symbol"`
	Shares     int64       `json:"shares"`
	LimitPrice float64     `json:"limitPrice,omitempty"`
	Currency   string      `json:"currency"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
	FilledAt   time.Time   `json:"filledAt"`
	ExpiresAt  time.Time   `json:"expiresAt"`
}

// Alert is a purely advisory price watch: triggering it produces a
// notification and nothing else.
type Alert struct {
	ID           string         `json:"id"`
	Symbol       string         `json:"symbol"`
	Condition    AlertCondition `json:"condition"`
	TargetPrice  float64        `json:"targetPrice"`
	CurrentPrice float64        `json:"currentPrice"`
	Enabled      bool           `json:"enabled"`
}

// Account is the user's account state. BuyingPower is always denominated
// in USD internally; DisplayCurrency only affects presentation.
type Account struct {
	BuyingPower     float64 `json:"buyingPower"`
	DisplayCurrency string  `json:"displayCurrency"`
	DisplayMarket   string  `json:"displayMarket"`
	XP              int64   `json:"xp"`
	Level           int     `json:"level"`
	Rank            string  `json:"rank"`
}

// Trade is an executed transaction. Price is the observed market price at
// execution, not a limit price.
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

// TradeResult is the account service's response to an execution or fill:
// the recorded trade plus the authoritative post-trade account values.
type TradeResult struct {
	Trade           Trade    `json:"trade"`
	BuyingPower     float64  `json:"buyingPower"`
	XP              int64    `json:"xp"`
	Level           int      `json:"level"`
	Rank            string   `json:"rank"`
	NewAchievements []string `json:"newAchievements,omitempty"`
}

// MarketStatus reports whether an exchange is currently open, with a
// human-readable reason when it is not.
type MarketStatus struct {
	Open     bool   `json:"open"`
	Reason   string `json:"reason,omitempty"`
	Exchange string `json:"exchange"`
	Hours    string `json:"hours,omitempty"`
}

// Notification is one entry in the sequential notification queue.
type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Title   string           `json:"title"`
	Body    string           `json:"body,omitempty"`
	XPDelta int64            `json:"xpDelta,omitempty"`
	Level   int              `json:"level,omitempty"`
	Rank    string           `json:"rank,omitempty"`
	At      time.Time        `json:"at"`
}

// ValuePoint is one sample of total portfolio value, used for history
// charts.
type ValuePoint struct {
	At       time.Time `json:"at"`
	Value    float64   `json:"value"`
	Invested float64   `json:"invested"`
	Currency string    `json:"currency"`
}

// HoldingView is a holding enriched with quote data and converted into
// the display currency.
type HoldingView struct {
	Holding
	Price          float64 `json:"price"`
	Value          float64 `json:"value"`
	Invested       float64 `json:"invested"`
	Returns        float64 `json:"returns"`
	ReturnsPercent float64 `json:"returnsPercent"`
	DayGain        float64 `json:"dayGain"`
}

// PortfolioSummary is the aggregate view of all holdings in the display
// currency, recomputed from scratch on every refresh.
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
