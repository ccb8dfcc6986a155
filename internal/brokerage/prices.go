package brokerage

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/Open-Papertrade/papertrade/internal/domain"
)

// priceBook generates quotes for the simulator. Every symbol gets a
// stable base price derived from its name, then drifts on a seeded
// random walk so runs are reproducible. Pinned symbols stop drifting,
// which tests and demos use to stage exact prices.
type priceBook struct {
	mu     sync.Mutex
	rng    *rand.Rand
	prices map[string]*simPrice
}

type simPrice struct {
	dayOpen float64
	last    float64
	pinned  bool
}

func newPriceBook(seed int64) *priceBook {
	if seed == 0 {
		seed = 1
	}
	return &priceBook{
		rng:    rand.New(rand.NewSource(seed)),
		prices: make(map[string]*simPrice),
	}
}

// basePrice derives a stable starting price from the symbol name:
// roughly 10..500 for stocks, far larger for crypto pairs.
func basePrice(symbol string) float64 {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	v := h.Sum32()

	if strings.HasSuffix(symbol, "-USD") {
		return float64(500 + v%95000)
	}
	return float64(10+v%490) + float64(v%100)/100
}

// symbolCurrency maps a symbol's suffix convention to its trading
// currency. Unsuffixed symbols trade in USD.
func symbolCurrency(symbol string) string {
	switch {
	case strings.HasSuffix(symbol, ".NS"):
		return "INR"
	case strings.HasSuffix(symbol, ".T"):
		return "JPY"
	case strings.HasSuffix(symbol, ".L"):
		return "GBP"
	case strings.HasSuffix(symbol, ".TO"):
		return "CAD"
	case strings.HasSuffix(symbol, ".AX"):
		return "AUD"
	case strings.HasSuffix(symbol, ".HK"):
		return "HKD"
	default:
		return "USD"
	}
}

// quote returns the current quote for symbol, advancing its walk by one
// step unless the price is pinned.
func (b *priceBook) quote(symbol string, at time.Time) domain.Quote {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.prices[symbol]
	if !ok {
		base := basePrice(symbol)
		p = &simPrice{dayOpen: base, last: base}
		b.prices[symbol] = p
	}

	if !p.pinned {
		// Drift up to ±0.4% per observation, kept to whole cents.
		p.last *= 1 + (b.rng.Float64()-0.5)*0.008
		p.last = math.Round(p.last*100) / 100
		if p.last < 0.01 {
			p.last = 0.01
		}
	}

	change := p.last - p.dayOpen
	pct := 0.0
	if p.dayOpen != 0 {
		pct = change / p.dayOpen * 100
	}

	return domain.Quote{
		Symbol:        symbol,
		Price:         p.last,
		Change:        change,
		ChangePercent: pct,
		Currency:      symbolCurrency(symbol),
		AsOf:          at,
	}
}

// pin fixes symbol at price until unpinned. The day open is preserved
// when the symbol already exists so change fields stay meaningful.
func (b *priceBook) pin(symbol string, price float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.prices[symbol]
	if !ok {
		p = &simPrice{dayOpen: price}
		b.prices[symbol] = p
	}
	p.last = price
	p.pinned = true
}
