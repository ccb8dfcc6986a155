package portfolio

import (
	"sync"

	"github.com/Open-Papertrade/papertrade/internal/domain"
)

// quoteCache holds the latest known quote per symbol. Each refresh
// replaces the entries for its batch wholesale; a failed batch leaves
// the previous entries untouched, so readers see stale-but-present data
// rather than an empty cache.
type quoteCache struct {
	mu     sync.RWMutex
	quotes map[string]domain.Quote
}

func newQuoteCache() *quoteCache {
	return &quoteCache{quotes: make(map[string]domain.Quote)}
}

// replace swaps in the fresh quotes for every symbol in the batch.
// Symbols outside the batch keep their previous entries.
func (c *quoteCache) replace(batch map[string]domain.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for sym, q := range batch {
		c.quotes[sym] = q
	}
}

// get returns the cached quote for symbol, if any.
func (c *quoteCache) get(symbol string) (domain.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.quotes[symbol]
	return q, ok
}

// snapshot returns a copy of the whole cache.
func (c *quoteCache) snapshot() map[string]domain.Quote {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]domain.Quote, len(c.quotes))
	for sym, q := range c.quotes {
		out[sym] = q
	}
	return out
}
