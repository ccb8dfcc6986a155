package brokerage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/Open-Papertrade/papertrade/internal/config"
	"github.com/Open-Papertrade/papertrade/internal/domain"
	"github.com/Open-Papertrade/papertrade/internal/fx"
	"github.com/Open-Papertrade/papertrade/internal/market"
)

// Compile-time interface check.
var _ Service = (*Simulator)(nil)

// simRates is the fixed USD-pivot rate table the simulator serves.
var simRates = fx.Rates{
	"USD": 1.0,
	"EUR": 0.92,
	"GBP": 0.79,
	"JPY": 151.2,
	"INR": 83.5,
	"CAD": 1.36,
	"AUD": 1.52,
	"HKD": 7.8,
}

// simHolidays lists fixed-date exchange holidays by MM-DD. Floating
// holidays are not modelled.
var simHolidays = map[string]map[string]string{
	"US": {
		"01-01": "New Year's Day",
		"06-19": "Juneteenth",
		"07-04": "Independence Day",
		"12-25": "Christmas Day",
	},
	"LSE": {
		"01-01": "New Year's Day",
		"12-25": "Christmas Day",
		"12-26": "Boxing Day",
	},
}

// rankLadder maps the level reached to the rank label, highest first.
var rankLadder = []struct {
	level int
	rank  string
}{
	{50, "Legend"},
	{35, "Master"},
	{20, "Strategist"},
	{10, "Trader"},
	{5, "Apprentice"},
	{0, "Novice"},
}

const schema = `
CREATE TABLE IF NOT EXISTS account (
	id               INTEGER PRIMARY KEY CHECK (id = 1),
	buying_power     REAL    NOT NULL,
	display_currency TEXT    NOT NULL DEFAULT 'USD',
	display_market   TEXT    NOT NULL DEFAULT 'US',
	xp               INTEGER NOT NULL DEFAULT 0,
	level            INTEGER NOT NULL DEFAULT 1,
	rank             TEXT    NOT NULL DEFAULT 'Novice'
);

CREATE TABLE IF NOT EXISTS holdings (
	symbol   TEXT PRIMARY KEY,
	shares   INTEGER NOT NULL,
	avg_cost REAL    NOT NULL,
	currency TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	id          TEXT PRIMARY KEY,
	side        TEXT    NOT NULL,
	kind        TEXT    NOT NULL,
	symbol      TEXT    NOT NULL,
	shares      INTEGER NOT NULL,
	limit_price REAL,
	currency    TEXT    NOT NULL,
	status      TEXT    NOT NULL,
	created_at  INTEGER NOT NULL,
	filled_at   INTEGER,
	expires_at  INTEGER
);

CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);

CREATE TABLE IF NOT EXISTS trades (
	id          TEXT PRIMARY KEY,
	order_id    TEXT,
	side        TEXT    NOT NULL,
	symbol      TEXT    NOT NULL,
	shares      INTEGER NOT NULL,
	price       REAL    NOT NULL,
	currency    TEXT    NOT NULL,
	xp          INTEGER NOT NULL,
	executed_at INTEGER NOT NULL
);
`

// Simulator implements Service entirely in-process, persisting account
// state in SQLite. In sim mode it plays the role the remote account
// service plays in production: it owns all account truth, enforces the
// balance and share invariants server-side, and awards XP per trade.
type Simulator struct {
	db     *sql.DB
	prices *priceBook
	log    *slog.Logger

	mu  sync.Mutex // serializes account mutations
	now func() time.Time
}

// OpenSimulator opens (or creates) the simulator database configured in
// cfg and seeds the account on first run. The quote walk is fixed by
// cfg.Brokerage.QuoteSeed so runs are reproducible.
func OpenSimulator(cfg *config.Config, log *slog.Logger) (*Simulator, error) {
	db, err := sql.Open("sqlite", cfg.Storage.SimulatorDB)
	if err != nil {
		return nil, fmt.Errorf("opening simulator db: %w", err)
	}

	s := &Simulator{
		db:     db,
		prices: newPriceBook(cfg.Brokerage.QuoteSeed),
		log:    log,
		now:    time.Now,
	}
	if err := s.migrate(cfg); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Simulator) migrate(cfg *config.Config) error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO account (id, buying_power, display_currency, display_market)
		 VALUES (1, ?, ?, ?)`,
		cfg.Brokerage.StartingBalance,
		cfg.Portfolio.DisplayCurrency,
		cfg.Portfolio.DisplayMarket,
	)
	if err != nil {
		return fmt.Errorf("seeding account: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Simulator) Close() error {
	return s.db.Close()
}

// Name returns "simulator".
func (s *Simulator) Name() string { return "simulator" }

// SetPrice pins symbol at price. Tests and demos use it to stage exact
// market conditions.
func (s *Simulator) SetPrice(symbol string, price float64) {
	s.prices.pin(symbol, price)
}

// GetQuotes serves one quote per symbol from the price book.
func (s *Simulator) GetQuotes(_ context.Context, symbols []string) (map[string]domain.Quote, error) {
	out := make(map[string]domain.Quote, len(symbols))
	now := s.now()
	for _, sym := range symbols {
		out[sym] = s.prices.quote(sym, now)
	}
	return out, nil
}

// GetHoldings returns all holdings. Change fields are left zero; the
// mirror overlays them from fresh quotes.
func (s *Simulator) GetHoldings(ctx context.Context) ([]domain.Holding, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT symbol, shares, avg_cost, currency FROM holdings ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		var h domain.Holding
		if err := rows.Scan(&h.Symbol, &h.Shares, &h.AvgCost, &h.Currency); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// GetPendingOrders expires stale orders, then returns the remaining
// pending set.
func (s *Simulator) GetPendingOrders(ctx context.Context) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.expireStale(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, side, kind, symbol, shares, limit_price, currency, status,
		        created_at, filled_at, expires_at
		   FROM orders WHERE status = ? ORDER BY created_at`,
		domain.OrderStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// expireStale transitions pending orders past their expiry to EXPIRED,
// refunding buy reservations.
func (s *Simulator) expireStale(ctx context.Context) error {
	nowMS := s.now().UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, side, shares, limit_price, currency FROM orders
		  WHERE status = ? AND expires_at IS NOT NULL AND expires_at < ?`,
		domain.OrderStatusPending, nowMS)
	if err != nil {
		return err
	}

	type stale struct {
		id       string
		side     domain.OrderSide
		shares   int64
		limit    float64
		currency string
	}
	var expired []stale
	for rows.Next() {
		var st stale
		if err := rows.Scan(&st.id, &st.side, &st.shares, &st.limit, &st.currency); err != nil {
			rows.Close()
			return err
		}
		expired = append(expired, st)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(expired) == 0 {
		return nil
	}

	for _, st := range expired {
		if st.side == domain.OrderSideBuy {
			refund := fx.ToUSD(st.limit*float64(st.shares), st.currency, simRates)
			if _, err := tx.ExecContext(ctx,
				`UPDATE account SET buying_power = buying_power + ? WHERE id = 1`, refund); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET status = ? WHERE id = ?`,
			domain.OrderStatusExpired, st.id); err != nil {
			return err
		}
		s.log.Info("order expired", "orderID", st.id)
	}
	return tx.Commit()
}

// CreateOrder places a limit order. Buys reserve the USD equivalent of
// shares times the limit price; sells require the shares to be free of
// other pending sells.
func (s *Simulator) CreateOrder(ctx context.Context, req TradeRequest) (domain.Order, float64, error) {
	if req.Kind != domain.OrderKindLimit {
		return domain.Order{}, 0, fmt.Errorf("unsupported order kind %q", req.Kind)
	}
	if err := validateTrade(req.Side, req.Shares); err != nil {
		return domain.Order{}, 0, err
	}
	if req.LimitPrice <= 0 {
		return domain.Order{}, 0, fmt.Errorf("limit price must be positive")
	}

	currency := req.Currency
	if currency == "" {
		currency = symbolCurrency(req.Symbol)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, 0, err
	}
	defer tx.Rollback()

	account, err := readAccount(ctx, tx)
	if err != nil {
		return domain.Order{}, 0, err
	}

	switch req.Side {
	case domain.OrderSideBuy:
		reserve := fx.ToUSD(req.LimitPrice*float64(req.Shares), currency, simRates)
		if account.BuyingPower+1e-9 < reserve {
			return domain.Order{}, 0, ErrInsufficientFunds
		}
		account.BuyingPower -= reserve

	case domain.OrderSideSell:
		held, err := heldShares(ctx, tx, req.Symbol)
		if err != nil {
			return domain.Order{}, 0, err
		}
		pendingSells, err := pendingSellShares(ctx, tx, req.Symbol)
		if err != nil {
			return domain.Order{}, 0, err
		}
		if held-pendingSells < req.Shares {
			return domain.Order{}, 0, ErrInsufficientShares
		}
	}

	order := domain.Order{
		ID:         uuid.NewString(),
		Side:       req.Side,
		Kind:       domain.OrderKindLimit,
		Symbol:     req.Symbol,
		Shares:     req.Shares,
		LimitPrice: req.LimitPrice,
		Currency:   currency,
		Status:     domain.OrderStatusPending,
		CreatedAt:  s.now(),
		ExpiresAt:  req.ExpiresAt,
	}

	var expiresMS any
	if !order.ExpiresAt.IsZero() {
		expiresMS = order.ExpiresAt.UnixMilli()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, side, kind, symbol, shares, limit_price, currency,
		                     status, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.Side, order.Kind, order.Symbol, order.Shares,
		order.LimitPrice, order.Currency, order.Status,
		order.CreatedAt.UnixMilli(), expiresMS)
	if err != nil {
		return domain.Order{}, 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE account SET buying_power = ? WHERE id = 1`, account.BuyingPower); err != nil {
		return domain.Order{}, 0, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Order{}, 0, err
	}

	s.log.Info("limit order placed",
		"orderID", order.ID, "side", order.Side, "symbol", order.Symbol,
		"shares", order.Shares, "limit", order.LimitPrice)
	return order, account.BuyingPower, nil
}

// FillOrder executes a pending limit order at the observed market price.
// The buy reservation is released and the actual cost at the observed
// price applied, so price improvement flows back to buying power.
func (s *Simulator) FillOrder(ctx context.Context, id string, observedPrice float64) (domain.TradeResult, error) {
	if observedPrice <= 0 {
		return domain.TradeResult{}, fmt.Errorf("observed price must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.TradeResult{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, side, kind, symbol, shares, limit_price, currency, status,
		        created_at, filled_at, expires_at
		   FROM orders WHERE id = ?`, id)
	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return domain.TradeResult{}, ErrUnknownOrder
	}
	if err != nil {
		return domain.TradeResult{}, err
	}
	if order.Status != domain.OrderStatusPending {
		return domain.TradeResult{}, ErrOrderNotPending
	}

	// Release the placement reservation before charging the real cost.
	if order.Side == domain.OrderSideBuy {
		refund := fx.ToUSD(order.LimitPrice*float64(order.Shares), order.Currency, simRates)
		if _, err := tx.ExecContext(ctx,
			`UPDATE account SET buying_power = buying_power + ? WHERE id = 1`, refund); err != nil {
			return domain.TradeResult{}, err
		}
	}

	result, err := s.executeTx(ctx, tx, order.Side, order.Symbol, order.Shares,
		observedPrice, order.Currency, order.ID)
	if err != nil {
		return domain.TradeResult{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = ?, filled_at = ? WHERE id = ?`,
		domain.OrderStatusFilled, s.now().UnixMilli(), order.ID); err != nil {
		return domain.TradeResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.TradeResult{}, err
	}

	s.log.Info("limit order filled",
		"orderID", order.ID, "symbol", order.Symbol, "price", observedPrice)
	return result, nil
}

// CancelOrder cancels a pending order and restores any buy reservation.
func (s *Simulator) CancelOrder(ctx context.Context, id string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT id, side, kind, symbol, shares, limit_price, currency, status,
		        created_at, filled_at, expires_at
		   FROM orders WHERE id = ?`, id)
	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return 0, ErrUnknownOrder
	}
	if err != nil {
		return 0, err
	}
	if order.Status != domain.OrderStatusPending {
		return 0, ErrOrderNotPending
	}

	account, err := readAccount(ctx, tx)
	if err != nil {
		return 0, err
	}
	if order.Side == domain.OrderSideBuy {
		account.BuyingPower += fx.ToUSD(order.LimitPrice*float64(order.Shares), order.Currency, simRates)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = ? WHERE id = ?`, domain.OrderStatusCancelled, id); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE account SET buying_power = ? WHERE id = 1`, account.BuyingPower); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	s.log.Info("order cancelled", "orderID", id)
	return account.BuyingPower, nil
}

// ExecuteTrade runs an immediate market execution at the current book
// price.
func (s *Simulator) ExecuteTrade(ctx context.Context, req TradeRequest) (domain.TradeResult, error) {
	if err := validateTrade(req.Side, req.Shares); err != nil {
		return domain.TradeResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.prices.quote(req.Symbol, s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.TradeResult{}, err
	}
	defer tx.Rollback()

	result, err := s.executeTx(ctx, tx, req.Side, req.Symbol, req.Shares, q.Price, q.Currency, "")
	if err != nil {
		return domain.TradeResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.TradeResult{}, err
	}

	s.log.Info("trade executed",
		"side", req.Side, "symbol", req.Symbol, "shares", req.Shares, "price", q.Price)
	return result, nil
}

// executeTx applies one trade inside tx: balance check and update,
// holding adjustment, XP award, and the trade record. The caller commits.
func (s *Simulator) executeTx(ctx context.Context, tx *sql.Tx, side domain.OrderSide,
	symbol string, shares int64, price float64, currency string, orderID string) (domain.TradeResult, error) {

	account, err := readAccount(ctx, tx)
	if err != nil {
		return domain.TradeResult{}, err
	}

	cost := fx.ToUSD(price*float64(shares), currency, simRates)

	switch side {
	case domain.OrderSideBuy:
		if account.BuyingPower+1e-9 < cost {
			return domain.TradeResult{}, ErrInsufficientFunds
		}
		account.BuyingPower -= cost

		held, avg, err := holdingRow(ctx, tx, symbol)
		if err != nil {
			return domain.TradeResult{}, err
		}
		newShares := held + shares
		newAvg := price
		if held > 0 {
			newAvg = (avg*float64(held) + price*float64(shares)) / float64(newShares)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO holdings (symbol, shares, avg_cost, currency) VALUES (?, ?, ?, ?)
			 ON CONFLICT(symbol) DO UPDATE SET shares = ?, avg_cost = ?`,
			symbol, newShares, newAvg, currency, newShares, newAvg)
		if err != nil {
			return domain.TradeResult{}, err
		}

	case domain.OrderSideSell:
		held, _, err := holdingRow(ctx, tx, symbol)
		if err != nil {
			return domain.TradeResult{}, err
		}
		if held < shares {
			return domain.TradeResult{}, ErrInsufficientShares
		}
		account.BuyingPower += cost

		if held == shares {
			// Flat positions disappear rather than lingering at zero.
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM holdings WHERE symbol = ?`, symbol); err != nil {
				return domain.TradeResult{}, err
			}
		} else {
			if _, err := tx.ExecContext(ctx,
				`UPDATE holdings SET shares = ? WHERE symbol = ?`, held-shares, symbol); err != nil {
				return domain.TradeResult{}, err
			}
		}
	}

	var tradeCount int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM trades`).Scan(&tradeCount); err != nil {
		return domain.TradeResult{}, err
	}

	xpGain := tradeXP(shares)
	account.XP += xpGain
	account.Level = 1 + int(account.XP/1000)
	account.Rank = rankFor(account.Level)

	if _, err := tx.ExecContext(ctx,
		`UPDATE account SET buying_power = ?, xp = ?, level = ?, rank = ? WHERE id = 1`,
		account.BuyingPower, account.XP, account.Level, account.Rank); err != nil {
		return domain.TradeResult{}, err
	}

	trade := domain.Trade{
		ID:         uuid.NewString(),
		OrderID:    orderID,
		Side:       side,
		Symbol:     symbol,
		Shares:     shares,
		Price:      price,
		Currency:   currency,
		XP:         xpGain,
		ExecutedAt: s.now(),
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO trades (id, order_id, side, symbol, shares, price, currency, xp, executed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trade.ID, trade.OrderID, trade.Side, trade.Symbol, trade.Shares,
		trade.Price, trade.Currency, trade.XP, trade.ExecutedAt.UnixMilli())
	if err != nil {
		return domain.TradeResult{}, err
	}

	var achievements []string
	if tradeCount == 0 {
		achievements = append(achievements, "First Trade")
	}

	return domain.TradeResult{
		Trade:           trade,
		BuyingPower:     account.BuyingPower,
		XP:              account.XP,
		Level:           account.Level,
		Rank:            account.Rank,
		NewAchievements: achievements,
	}, nil
}

// GetAccount returns the account snapshot.
func (s *Simulator) GetAccount(ctx context.Context) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT buying_power, display_currency, display_market, xp, level, rank
		   FROM account WHERE id = 1`)
	var a domain.Account
	err := row.Scan(&a.BuyingPower, &a.DisplayCurrency, &a.DisplayMarket,
		&a.XP, &a.Level, &a.Rank)
	if err != nil {
		return domain.Account{}, err
	}
	return a, nil
}

// MarketStatus reports open/closed with fixed-date holiday awareness.
func (s *Simulator) MarketStatus(_ context.Context, exchange string) (bool, string, error) {
	ex := market.Lookup(exchange)
	now := s.now()

	loc, err := time.LoadLocation(ex.TZ)
	if err != nil {
		loc = time.UTC
	}
	if name, ok := simHolidays[ex.Code][now.In(loc).Format("01-02")]; ok {
		return false, name, nil
	}

	open, _ := ex.OpenAt(now)
	return open, "", nil
}

// GetExchangeRates returns the fixed rate table.
func (s *Simulator) GetExchangeRates(_ context.Context) (fx.Rates, error) {
	out := make(fx.Rates, len(simRates))
	for k, v := range simRates {
		out[k] = v
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func validateTrade(side domain.OrderSide, shares int64) error {
	if side != domain.OrderSideBuy && side != domain.OrderSideSell {
		return fmt.Errorf("unsupported order side %q", side)
	}
	if shares <= 0 {
		return fmt.Errorf("shares must be positive")
	}
	return nil
}

// tradeXP awards 10 XP plus one per share, capped at 100 per trade.
func tradeXP(shares int64) int64 {
	xp := 10 + shares
	if xp > 100 {
		xp = 100
	}
	return xp
}

func rankFor(level int) string {
	for _, r := range rankLadder {
		if level >= r.level {
			return r.rank
		}
	}
	return "Novice"
}

func readAccount(ctx context.Context, tx *sql.Tx) (domain.Account, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT buying_power, display_currency, display_market, xp, level, rank
		   FROM account WHERE id = 1`)
	var a domain.Account
	err := row.Scan(&a.BuyingPower, &a.DisplayCurrency, &a.DisplayMarket,
		&a.XP, &a.Level, &a.Rank)
	if err != nil {
		return domain.Account{}, err
	}
	return a, nil
}

func heldShares(ctx context.Context, tx *sql.Tx, symbol string) (int64, error) {
	var held int64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(shares), 0) FROM holdings WHERE symbol = ?`, symbol).Scan(&held)
	return held, err
}

func holdingRow(ctx context.Context, tx *sql.Tx, symbol string) (shares int64, avgCost float64, err error) {
	err = tx.QueryRowContext(ctx,
		`SELECT shares, avg_cost FROM holdings WHERE symbol = ?`, symbol).
		Scan(&shares, &avgCost)
	if err == sql.ErrNoRows {
		return 0, 0, nil
	}
	return shares, avgCost, err
}

func pendingSellShares(ctx context.Context, tx *sql.Tx, symbol string) (int64, error) {
	var total int64
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(shares), 0) FROM orders
		  WHERE symbol = ? AND side = ? AND status = ?`,
		symbol, domain.OrderSideSell, domain.OrderStatusPending).Scan(&total)
	return total, err
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (domain.Order, error) {
	var o domain.Order
	var limit sql.NullFloat64
	var createdMS int64
	var filledMS, expiresMS sql.NullInt64

	err := row.Scan(&o.ID, &o.Side, &o.Kind, &o.Symbol, &o.Shares, &limit,
		&o.Currency, &o.Status, &createdMS, &filledMS, &expiresMS)
	if err != nil {
		return domain.Order{}, err
	}

	o.LimitPrice = limit.Float64
	o.CreatedAt = time.UnixMilli(createdMS)
	if filledMS.Valid {
		o.FilledAt = time.UnixMilli(filledMS.Int64)
	}
	if expiresMS.Valid {
		o.ExpiresAt = time.UnixMilli(expiresMS.Int64)
	}
	return o, nil
}
