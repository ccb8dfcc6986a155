// Package portfolio keeps a local mirror of the brokerage account —
// holdings, pending orders, balance, alerts — reconciled against the
// account service on every refresh. The mirror owns all mutation: a
// refresh replaces state wholesale with authoritative server data,
// trades apply a local delta that the next refresh reconciles, and
// readers only ever see deep-copy snapshots. Each quote refresh also
// drives the limit order matcher and the alert evaluator.
package portfolio

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Open-Papertrade/papertrade/internal/brokerage"
	"github.com/Open-Papertrade/papertrade/internal/domain"
	"github.com/Open-Papertrade/papertrade/internal/fx"
)

// EventType labels mirror events for subscribers.
type EventType string

const (
	// EventSnapshot carries the full summary sent once when a stream
	// subscriber attaches.
	EventSnapshot     EventType = "snapshot"
	EventPortfolio    EventType = "portfolio"
	EventFill         EventType = "fill"
	EventNotification EventType = "notification"
	EventAlert        EventType = "alert"
)

// Event is broadcast to subscribers when the mirror changes. Exactly one
// payload field is set, matching Type.
type Event struct {
	Type         EventType                `json:"type"`
	Summary      *domain.PortfolioSummary `json:"summary,omitempty"`
	Order        *domain.Order            `json:"order,omitempty"`
	Trade        *domain.Trade            `json:"trade,omitempty"`
	Notification *domain.Notification     `json:"notification,omitempty"`
	Alert        *domain.Alert            `json:"alert,omitempty"`
}

// Mirror is the in-memory account mirror. All state lives behind one
// mutex; network calls happen outside it and their results are applied
// wholesale under it. Concurrent refresh triggers (manual plus timer)
// are deliberately not serialized: every writer replaces whole
// collections, so the last writer wins consistently whatever the
// interleaving.
type Mirror struct {
	svc   brokerage.Service
	watch *Watchlist
	log   *slog.Logger

	mu       sync.RWMutex
	account  domain.Account
	holdings map[string]domain.Holding
	orders   map[string]domain.Order // pending orders by id
	alerts   map[string]domain.Alert
	rates    fx.Rates

	quotes *quoteCache

	subsMu    sync.Mutex
	nextSubID int
	subs      map[int]chan Event

	notifyCh chan domain.Notification
	notifyWG sync.WaitGroup
	runCtx   context.Context

	now func() time.Time
}

// NewMirror creates a Mirror backed by svc. Call Start before the first
// refresh so notifications are delivered.
func NewMirror(svc brokerage.Service, watch *Watchlist, log *slog.Logger) *Mirror {
	return &Mirror{
		svc:      svc,
		watch:    watch,
		log:      log,
		holdings: make(map[string]domain.Holding),
		orders:   make(map[string]domain.Order),
		alerts:   make(map[string]domain.Alert),
		rates:    fx.Rates{"USD": 1},
		quotes:   newQuoteCache(),
		subs:     make(map[int]chan Event),
		notifyCh: make(chan domain.Notification, 64),
		now:      time.Now,
	}
}

// Start launches the notification consumer. Cancel ctx to stop it;
// Wait blocks until it has drained.
func (m *Mirror) Start(ctx context.Context) {
	m.runCtx = ctx
	m.notifyWG.Add(1)
	go m.notifyLoop()
}

// Wait blocks until the notification consumer has stopped.
func (m *Mirror) Wait() {
	m.notifyWG.Wait()
}

// Watchlist returns the mirror's watchlist.
func (m *Mirror) Watchlist() *Watchlist {
	return m.watch
}

// ---------------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------------

// RefreshAll pulls account, holdings, pending orders, and rates from the
// service, replaces the mirror wholesale, then runs a price refresh. On
// any fetch failure the mirror keeps its previous state.
func (m *Mirror) RefreshAll(ctx context.Context) error {
	var (
		account  domain.Account
		holdings []domain.Holding
		orders   []domain.Order
		rates    fx.Rates
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		account, err = m.svc.GetAccount(gctx)
		return err
	})
	g.Go(func() (err error) {
		holdings, err = m.svc.GetHoldings(gctx)
		return err
	})
	g.Go(func() (err error) {
		orders, err = m.svc.GetPendingOrders(gctx)
		return err
	})
	g.Go(func() (err error) {
		rates, err = m.svc.GetExchangeRates(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		m.log.Warn("account refresh failed, keeping previous mirror state", "err", err)
		return err
	}

	m.mu.Lock()
	m.account = account
	m.holdings = make(map[string]domain.Holding, len(holdings))
	for _, h := range holdings {
		m.holdings[h.Symbol] = h
	}
	m.orders = make(map[string]domain.Order, len(orders))
	for _, o := range orders {
		if o.Status == domain.OrderStatusPending {
			m.orders[o.ID] = o
		}
	}
	m.rates = rates
	m.mu.Unlock()

	return m.RefreshPrices(ctx)
}

// RefreshPrices fetches fresh quotes for every symbol the mirror cares
// about, replaces the quote cache wholesale for that batch, and then —
// in order — overlays holding display fields, runs the limit matcher,
// and evaluates alerts. The matcher always sees a fully replaced quote
// set, never a half-updated one. A failed fetch keeps the previous
// cache and skips the pass.
func (m *Mirror) RefreshPrices(ctx context.Context) error {
	symbols := m.refreshSymbols()
	if len(symbols) == 0 {
		return nil
	}

	quotes, err := m.svc.GetQuotes(ctx, symbols)
	if err != nil {
		m.log.Warn("quote refresh failed, keeping cached quotes", "err", err)
		return err
	}
	m.quotes.replace(quotes)

	m.overlayQuotes(quotes)
	m.matchPass(ctx)
	m.evalAlerts()
	m.broadcastPortfolio()
	return nil
}

// refreshSymbols is the union of held, watched, resting-order, and
// alerted symbols — the set worth refreshing.
func (m *Mirror) refreshSymbols() []string {
	seen := make(map[string]bool)
	m.mu.RLock()
	for sym := range m.holdings {
		seen[sym] = true
	}
	for _, o := range m.orders {
		seen[o.Symbol] = true
	}
	for _, a := range m.alerts {
		seen[a.Symbol] = true
	}
	m.mu.RUnlock()
	for _, sym := range m.watch.Symbols() {
		seen[sym] = true
	}

	symbols := make([]string, 0, len(seen))
	for sym := range seen {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

// HasRefreshTargets reports whether anything is worth refreshing. The
// scheduler skips quote ticks while this is false.
func (m *Mirror) HasRefreshTargets() bool {
	m.mu.RLock()
	n := len(m.holdings) + len(m.orders) + len(m.alerts)
	m.mu.RUnlock()
	return n > 0 || len(m.watch.Symbols()) > 0
}

// overlayQuotes copies change fields from fresh quotes onto holdings.
// These are display-only; share counts and costs stay authoritative.
func (m *Mirror) overlayQuotes(quotes map[string]domain.Quote) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sym, q := range quotes {
		if h, ok := m.holdings[sym]; ok {
			h.Change = q.Change
			h.ChangePercent = q.ChangePercent
			m.holdings[sym] = h
		}
	}
}

// ---------------------------------------------------------------------------
// Matching
// ---------------------------------------------------------------------------

// matchPass evaluates the pending set against the fresh quote snapshot.
// Matched orders leave the pending set synchronously, before their fill
// is confirmed with the service — that removal is what makes repeated
// ticks idempotent. Confirmation itself is fire-and-forget: the pass
// never blocks on it, and a confirmation that fails transiently simply
// reappears as a pending order on the next full refresh.
func (m *Mirror) matchPass(ctx context.Context) {
	snap := m.quotes.snapshot()

	m.mu.Lock()
	pending := make([]domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		pending = append(pending, o)
	}
	fills := matchOrders(pending, snap)
	for _, f := range fills {
		delete(m.orders, f.order.ID)
	}
	m.mu.Unlock()

	for _, f := range fills {
		go m.confirmFill(context.WithoutCancel(ctx), f)
	}
}

// confirmFill reports one observed fill to the account service and
// applies the authoritative result.
func (m *Mirror) confirmFill(ctx context.Context, f fill) {
	res, err := m.svc.FillOrder(ctx, f.order.ID, f.price)
	if err != nil {
		if errors.Is(err, brokerage.ErrOrderNotPending) || errors.Is(err, brokerage.ErrUnknownOrder) {
			// Cancelled or already settled on the service side; the next
			// full refresh reconciles.
			m.log.Info("fill skipped, order no longer pending", "orderID", f.order.ID)
			return
		}
		m.log.Warn("fill confirmation failed, order returns on next full refresh",
			"orderID", f.order.ID, "err", err)
		return
	}

	pre := m.applyTradeResult(res)

	filled := f.order
	filled.Status = domain.OrderStatusFilled
	filled.FilledAt = res.Trade.ExecutedAt

	m.log.Info("limit order filled",
		"orderID", filled.ID, "symbol", filled.Symbol,
		"limit", filled.LimitPrice, "price", f.price)
	m.broadcast(Event{Type: EventFill, Order: &filled, Trade: &res.Trade})
	m.enqueue(fillNotice(f.order, f.price, res.Trade.ExecutedAt))
	if n, ok := tradeDelta(pre, res, res.Trade.ExecutedAt); ok {
		m.enqueue(n)
	}
	m.broadcastPortfolio()
}

// ---------------------------------------------------------------------------
// Trading
// ---------------------------------------------------------------------------

// PlaceLimitOrder places a resting limit order. Buying power is reserved
// tentatively before the service call so the UI reflects the placement
// immediately, then replaced by the authoritative post-reservation value
// from the response. The tentative delta is rolled back on rejection.
func (m *Mirror) PlaceLimitOrder(ctx context.Context, req brokerage.TradeRequest) (domain.Order, error) {
	req.Kind = domain.OrderKindLimit

	var reserve float64
	m.mu.Lock()
	switch req.Side {
	case domain.OrderSideBuy:
		reserve = fx.ToUSD(req.LimitPrice*float64(req.Shares), req.Currency, m.rates)
		if m.account.BuyingPower < reserve {
			m.mu.Unlock()
			return domain.Order{}, brokerage.ErrInsufficientFunds
		}
		m.account.BuyingPower -= reserve
	case domain.OrderSideSell:
		if m.freeSharesLocked(req.Symbol) < req.Shares {
			m.mu.Unlock()
			return domain.Order{}, brokerage.ErrInsufficientShares
		}
	}
	m.mu.Unlock()

	order, buyingPower, err := m.svc.CreateOrder(ctx, req)

	m.mu.Lock()
	if err != nil {
		m.account.BuyingPower += reserve
		m.mu.Unlock()
		return domain.Order{}, err
	}
	m.account.BuyingPower = buyingPower
	m.orders[order.ID] = order
	m.mu.Unlock()

	m.log.Info("limit order placed",
		"orderID", order.ID, "side", order.Side, "symbol", order.Symbol,
		"shares", order.Shares, "limit", order.LimitPrice)
	m.broadcastPortfolio()
	return order, nil
}

// freeSharesLocked returns held shares of symbol not already committed
// to pending sell orders. Must be called with mu held.
func (m *Mirror) freeSharesLocked(symbol string) int64 {
	free := m.holdings[symbol].Shares
	for _, o := range m.orders {
		if o.Symbol == symbol && o.Side == domain.OrderSideSell {
			free -= o.Shares
		}
	}
	return free
}

// CancelLimitOrder cancels a resting order. The service restores the
// reservation and returns the authoritative buying power.
func (m *Mirror) CancelLimitOrder(ctx context.Context, id string) error {
	m.mu.RLock()
	_, ok := m.orders[id]
	m.mu.RUnlock()
	if !ok {
		return brokerage.ErrUnknownOrder
	}

	buyingPower, err := m.svc.CancelOrder(ctx, id)
	if err != nil {
		if errors.Is(err, brokerage.ErrOrderNotPending) {
			// Filled or expired under us; drop it locally and let the next
			// full refresh reconcile the balance.
			m.mu.Lock()
			delete(m.orders, id)
			m.mu.Unlock()
		}
		return err
	}

	m.mu.Lock()
	delete(m.orders, id)
	m.account.BuyingPower = buyingPower
	m.mu.Unlock()

	m.log.Info("order cancelled", "orderID", id)
	m.broadcastPortfolio()
	return nil
}

// ExecuteTrade runs an immediate market execution through the service
// and applies the authoritative result. Business rejections come back
// as sentinel errors with the mirror untouched.
func (m *Mirror) ExecuteTrade(ctx context.Context, req brokerage.TradeRequest) (domain.TradeResult, error) {
	req.Kind = domain.OrderKindMarket

	res, err := m.svc.ExecuteTrade(ctx, req)
	if err != nil {
		return domain.TradeResult{}, err
	}

	pre := m.applyTradeResult(res)

	m.log.Info("trade executed",
		"side", res.Trade.Side, "symbol", res.Trade.Symbol,
		"shares", res.Trade.Shares, "price", res.Trade.Price)
	m.broadcast(Event{Type: EventFill, Trade: &res.Trade})
	if n, ok := tradeDelta(pre, res, res.Trade.ExecutedAt); ok {
		m.enqueue(n)
	}
	for _, name := range res.NewAchievements {
		m.enqueue(domain.Notification{
			Kind:  domain.NotificationXP,
			Title: "Achievement unlocked: " + name,
			At:    res.Trade.ExecutedAt,
		})
	}
	m.broadcastPortfolio()
	return res, nil
}

// applyTradeResult replaces account fields with the authoritative
// post-trade values and applies the trade's holding delta locally. The
// pre-trade account is returned for gamification comparison. The local
// holding delta is optimistic; the next full refresh replaces holdings
// wholesale with server truth.
func (m *Mirror) applyTradeResult(res domain.TradeResult) domain.Account {
	m.mu.Lock()
	defer m.mu.Unlock()

	pre := m.account
	m.account.BuyingPower = res.BuyingPower
	m.account.XP = res.XP
	m.account.Level = res.Level
	if res.Rank != "" {
		m.account.Rank = res.Rank
	}
	m.applyTradeLocked(res.Trade)
	return pre
}

// applyTradeLocked adjusts the holding touched by t. Buys blend the
// average cost; sells that take the position to zero delete it, so a
// later buy starts a fresh position. Must be called with mu held.
func (m *Mirror) applyTradeLocked(t domain.Trade) {
	h, ok := m.holdings[t.Symbol]

	switch t.Side {
	case domain.OrderSideBuy:
		if !ok {
			h = domain.Holding{Symbol: t.Symbol, Currency: t.Currency}
		}
		newShares := h.Shares + t.Shares
		if h.Shares > 0 {
			h.AvgCost = (h.AvgCost*float64(h.Shares) + t.Price*float64(t.Shares)) / float64(newShares)
		} else {
			h.AvgCost = t.Price
		}
		h.Shares = newShares
		if q, ok := m.quotes.get(t.Symbol); ok {
			h.Change = q.Change
			h.ChangePercent = q.ChangePercent
		}
		m.holdings[t.Symbol] = h

	case domain.OrderSideSell:
		if !ok {
			return
		}
		h.Shares -= t.Shares
		if h.Shares <= 0 {
			delete(m.holdings, t.Symbol)
		} else {
			m.holdings[t.Symbol] = h
		}
	}
}

// ---------------------------------------------------------------------------
// Readers
// ---------------------------------------------------------------------------

// Account returns a copy of the account state.
func (m *Mirror) Account() domain.Account {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.account
}

// Holdings returns a sorted copy of all holdings.
func (m *Mirror) Holdings() []domain.Holding {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.holdingsLocked()
}

func (m *Mirror) holdingsLocked() []domain.Holding {
	out := make([]domain.Holding, 0, len(m.holdings))
	for _, h := range m.holdings {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Orders returns a copy of the pending orders, oldest first.
func (m *Mirror) Orders() []domain.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Quote returns the cached quote for symbol, if any.
func (m *Mirror) Quote(symbol string) (domain.Quote, bool) {
	return m.quotes.get(symbol)
}

// Quotes returns a copy of the whole quote cache.
func (m *Mirror) Quotes() map[string]domain.Quote {
	return m.quotes.snapshot()
}

// Rates returns a copy of the current rate table.
func (m *Mirror) Rates() fx.Rates {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(fx.Rates, len(m.rates))
	for k, v := range m.rates {
		out[k] = v
	}
	return out
}

// Portfolio computes the aggregate summary from the current mirror
// state and quote cache.
func (m *Mirror) Portfolio() domain.PortfolioSummary {
	snap := m.quotes.snapshot()
	m.mu.RLock()
	holdings := m.holdingsLocked()
	account := m.account
	rates := m.rates
	m.mu.RUnlock()
	return Summarize(holdings, snap, account, rates, m.now())
}

func (m *Mirror) broadcastPortfolio() {
	sum := m.Portfolio()
	m.broadcast(Event{Type: EventPortfolio, Summary: &sum})
}

// ---------------------------------------------------------------------------
// Alerts
// ---------------------------------------------------------------------------

// Alerts returns a copy of all alerts, sorted by symbol then id.
func (m *Mirror) Alerts() []domain.Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Alert, 0, len(m.alerts))
	for _, a := range m.alerts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Symbol != out[j].Symbol {
			return out[i].Symbol < out[j].Symbol
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SetAlert creates or updates an alert. New alerts get an id and start
// enabled.
func (m *Mirror) SetAlert(a domain.Alert) domain.Alert {
	if a.ID == "" {
		a.ID = uuid.NewString()
		a.Enabled = true
	}
	if q, ok := m.quotes.get(a.Symbol); ok {
		a.CurrentPrice = q.Price
	}
	m.mu.Lock()
	m.alerts[a.ID] = a
	m.mu.Unlock()
	return a
}

// DeleteAlert removes an alert, reporting whether it existed.
func (m *Mirror) DeleteAlert(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.alerts[id]; !ok {
		return false
	}
	delete(m.alerts, id)
	return true
}

// evalAlerts checks every enabled alert against the fresh quote cache.
// A triggered alert disables itself (one-shot) and queues a
// notification; it never touches orders or balances.
func (m *Mirror) evalAlerts() {
	snap := m.quotes.snapshot()
	now := m.now()

	var triggered []domain.Alert
	m.mu.Lock()
	for id, a := range m.alerts {
		q, ok := snap[a.Symbol]
		if !ok {
			continue
		}
		a.CurrentPrice = q.Price
		if a.Enabled && alertHolds(a, q.Price) {
			a.Enabled = false
			triggered = append(triggered, a)
		}
		m.alerts[id] = a
	}
	m.mu.Unlock()

	for _, a := range triggered {
		m.log.Info("alert triggered", "alertID", a.ID, "symbol", a.Symbol,
			"condition", a.Condition, "target", a.TargetPrice, "price", a.CurrentPrice)
		alert := a
		m.broadcast(Event{Type: EventAlert, Alert: &alert})
		m.enqueue(alertNotice(a, a.CurrentPrice, now))
	}
}

// alertHolds reports whether price satisfies the alert condition.
func alertHolds(a domain.Alert, price float64) bool {
	switch a.Condition {
	case domain.AlertAbove:
		return price >= a.TargetPrice
	case domain.AlertBelow:
		return price <= a.TargetPrice
	}
	return false
}

// ---------------------------------------------------------------------------
// Subscriptions
// ---------------------------------------------------------------------------

// Subscribe creates a subscription channel for mirror events. bufSize
// controls the channel buffer; slow consumers have events dropped.
func (m *Mirror) Subscribe(bufSize int) (int, <-chan Event) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	id := m.nextSubID
	m.nextSubID++
	ch := make(chan Event, bufSize)
	m.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (m *Mirror) Unsubscribe(id int) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	if ch, ok := m.subs[id]; ok {
		close(ch)
		delete(m.subs, id)
	}
}

// broadcast sends an event to all subscribers non-blocking.
func (m *Mirror) broadcast(e Event) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()
	for _, ch := range m.subs {
		select {
		case ch <- e:
		default:
			// Slow consumer — drop event.
		}
	}
}
