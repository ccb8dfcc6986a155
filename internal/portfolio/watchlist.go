package portfolio

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Watchlist is the ordered set of symbols the user tracks without
// holding. It is a client-side preference, not account truth, so it
// persists to a local JSON file rather than the account service.
type Watchlist struct {
	mu       sync.RWMutex
	symbols  []string
	filePath string
	log      *slog.Logger
}

// NewWatchlist creates a Watchlist, loading persisted symbols from
// filePath when the file exists.
func NewWatchlist(filePath string, log *slog.Logger) *Watchlist {
	w := &Watchlist{filePath: filePath, log: log}
	w.load()
	return w
}

// Symbols returns a copy of the watched symbols in order.
func (w *Watchlist) Symbols() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, len(w.symbols))
	copy(out, w.symbols)
	return out
}

// Contains reports whether symbol is on the list.
func (w *Watchlist) Contains(symbol string) bool {
	symbol = strings.ToUpper(symbol)
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, s := range w.symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// Add appends symbol and persists. It returns false when the symbol was
// already present.
func (w *Watchlist) Add(symbol string) bool {
	symbol = strings.ToUpper(symbol)
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.symbols {
		if s == symbol {
			return false
		}
	}
	w.symbols = append(w.symbols, symbol)
	w.flush()
	return true
}

// Remove deletes symbol and persists. It returns false when the symbol
// was not present.
func (w *Watchlist) Remove(symbol string) bool {
	symbol = strings.ToUpper(symbol)
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, s := range w.symbols {
		if s == symbol {
			w.symbols = append(w.symbols[:i], w.symbols[i+1:]...)
			w.flush()
			return true
		}
	}
	return false
}

// load reads the JSON file into memory.
func (w *Watchlist) load() {
	data, err := os.ReadFile(w.filePath)
	if err != nil {
		return // File doesn't exist yet — start empty.
	}
	var symbols []string
	if err := json.Unmarshal(data, &symbols); err != nil {
		w.log.Warn("loading watchlist file", "err", err)
		return
	}
	w.symbols = symbols
	w.log.Info("watchlist loaded", "symbols", len(symbols))
}

// flush writes the in-memory list to disk. Must be called with mu held.
func (w *Watchlist) flush() {
	data, err := json.Marshal(w.symbols)
	if err != nil {
		w.log.Error("marshalling watchlist", "err", err)
		return
	}
	if err := os.WriteFile(w.filePath, data, 0o644); err != nil {
		w.log.Error("writing watchlist file", "err", err)
	}
}
