// Package market answers whether an exchange is open for trading right
// now. A remote holiday-aware status check is preferred; any remote
// failure degrades to a local timezone and weekday-schedule computation,
// which misses holidays but is always available. Crypto symbols trade
// around the clock and never consult either path.
package market

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Open-Papertrade/papertrade/internal/domain"
)

// cryptoSuffix marks symbols quoted against USD around the clock.
const cryptoSuffix = "-USD"

// StatusProvider is the remote holiday-aware status source. Implementors
// report whether the exchange is open and, when closed for a holiday,
// its name.
type StatusProvider interface {
	MarketStatus(ctx context.Context, exchange string) (open bool, holiday string, err error)
}

// Clock resolves market status for exchange/symbol pairs. Now is
// replaceable for tests and defaults to time.Now.
type Clock struct {
	provider StatusProvider
	log      *slog.Logger

	Now func() time.Time
}

// NewClock creates a Clock. provider may be nil, in which case every
// lookup uses the local schedule.
func NewClock(provider StatusProvider, log *slog.Logger) *Clock {
	return &Clock{provider: provider, log: log, Now: time.Now}
}

// IsCrypto reports whether symbol denotes a crypto asset by naming
// convention.
func IsCrypto(symbol string) bool {
	return strings.HasSuffix(symbol, cryptoSuffix)
}

// Status determines whether the venue trading symbol is currently open.
// It never returns an error: remote failures fall back to the local
// schedule.
func (c *Clock) Status(ctx context.Context, exchange, symbol string) domain.MarketStatus {
	if IsCrypto(symbol) {
		return domain.MarketStatus{Open: true, Exchange: "Crypto", Hours: "24/7"}
	}

	ex := Lookup(exchange)

	if c.provider != nil {
		open, holiday, err := c.provider.MarketStatus(ctx, exchange)
		if err == nil {
			st := domain.MarketStatus{Open: open, Exchange: ex.Name, Hours: ex.Hours}
			if !open {
				st.Reason = "Market closed"
				if holiday != "" {
					st.Reason = "Closed for " + holiday
				}
			}
			return st
		}
		c.log.Warn("remote market status failed, using local schedule",
			"exchange", exchange, "err", err)
	}

	return c.localStatus(ex)
}

// localStatus computes open/closed from the exchange's weekday window in
// its own timezone.
func (c *Clock) localStatus(ex Exchange) domain.MarketStatus {
	st := domain.MarketStatus{Exchange: ex.Name, Hours: ex.Hours}
	st.Open, st.Reason = ex.OpenAt(c.Now())
	return st
}
