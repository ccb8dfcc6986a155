package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/Open-Papertrade/papertrade/internal/domain"
)

// Compile-time interface checks.
var _ ValueStore = (*ParquetStore)(nil)
var _ TradeLog = (*ParquetStore)(nil)

// ParquetStore implements ValueStore and TradeLog using Parquet files on
// disk, one file per UTC day. Appends merge into the existing day file,
// deduplicating by timestamp (values) or trade id (trades), so replays
// after a crash or reconnect are harmless.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a ParquetStore rooted at the given data
// directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// ValueRecord is the Parquet schema for portfolio value samples.
type ValueRecord struct {
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Value     float64 `parquet:"value"`
	Invested  float64 `parquet:"invested"`
	Currency  string  `parquet:"currency"`
}

// TradeRecord is the Parquet schema for the executed-trade log.
type TradeRecord struct {
	ID        string  `parquet:"id"`
	OrderID   string  `parquet:"order_id"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Side      string  `parquet:"side"`
	Symbol    string  `parquet:"symbol"`
	Shares    int64   `parquet:"shares"`
	Price     float64 `parquet:"price"`
	Currency  string  `parquet:"currency"`
	XP        int64   `parquet:"xp"`
}

// ---------------------------------------------------------------------------
// ValueStore implementation
// ---------------------------------------------------------------------------

// AppendValues writes value samples grouped into per-day files at:
//
//	<DataDir>/values/<YYYY-MM-DD>.parquet
func (s *ParquetStore) AppendValues(_ context.Context, points []domain.ValuePoint) error {
	if len(points) == 0 {
		return nil
	}

	groups := make(map[string][]ValueRecord)
	for _, p := range points {
		day := p.At.UTC().Format("2006-01-02")
		groups[day] = append(groups[day], ValueRecord{
			Timestamp: p.At.UnixMilli(),
			Value:     p.Value,
			Invested:  p.Invested,
			Currency:  p.Currency,
		})
	}

	for day, records := range groups {
		path := s.valuePath(day)
		existing, _ := readParquetFile[ValueRecord](path)
		merged := mergeValueRecords(existing, records)
		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing values for %s: %w", day, err)
		}
	}
	return nil
}

// ReadValues reads value samples for the given time range.
func (s *ParquetStore) ReadValues(_ context.Context, start, end time.Time) ([]domain.ValuePoint, error) {
	var points []domain.ValuePoint
	for d := start.UTC().Truncate(24 * time.Hour); !d.After(end); d = d.AddDate(0, 0, 1) {
		records, err := readParquetFile[ValueRecord](s.valuePath(d.Format("2006-01-02")))
		if err != nil {
			// No file for this day — skip.
			continue
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp)
			if inRange(ts, start, end) {
				points = append(points, domain.ValuePoint{
					At:       ts,
					Value:    r.Value,
					Invested: r.Invested,
					Currency: r.Currency,
				})
			}
		}
	}
	return points, nil
}

// ---------------------------------------------------------------------------
// TradeLog implementation
// ---------------------------------------------------------------------------

// AppendTrades writes executed trades grouped into per-day files at:
//
//	<DataDir>/trades/<YYYY-MM-DD>.parquet
func (s *ParquetStore) AppendTrades(_ context.Context, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}

	groups := make(map[string][]TradeRecord)
	for _, t := range trades {
		day := t.ExecutedAt.UTC().Format("2006-01-02")
		groups[day] = append(groups[day], TradeRecord{
			ID:        t.ID,
			OrderID:   t.OrderID,
			Timestamp: t.ExecutedAt.UnixMilli(),
			Side:      string(t.Side),
			Symbol:    t.Symbol,
			Shares:    t.Shares,
			Price:     t.Price,
			Currency:  t.Currency,
			XP:        t.XP,
		})
	}

	for day, records := range groups {
		path := s.tradePath(day)
		existing, _ := readParquetFile[TradeRecord](path)
		merged := mergeTradeRecords(existing, records)
		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing trades for %s: %w", day, err)
		}
	}
	return nil
}

// ReadTrades reads the trade log for the given time range.
func (s *ParquetStore) ReadTrades(_ context.Context, start, end time.Time) ([]domain.Trade, error) {
	var trades []domain.Trade
	for d := start.UTC().Truncate(24 * time.Hour); !d.After(end); d = d.AddDate(0, 0, 1) {
		records, err := readParquetFile[TradeRecord](s.tradePath(d.Format("2006-01-02")))
		if err != nil {
			continue
		}
		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp)
			if inRange(ts, start, end) {
				trades = append(trades, domain.Trade{
					ID:         r.ID,
					OrderID:    r.OrderID,
					Side:       domain.OrderSide(r.Side),
					Symbol:     r.Symbol,
					Shares:     r.Shares,
					Price:      r.Price,
					Currency:   r.Currency,
					XP:         r.XP,
					ExecutedAt: ts,
				})
			}
		}
	}
	return trades, nil
}

// ListDays returns the days (YYYY-MM-DD) that have any recorded data,
// sorted ascending.
func (s *ParquetStore) ListDays() ([]string, error) {
	seen := make(map[string]bool)
	for _, sub := range []string{"values", "trades"} {
		entries, err := os.ReadDir(filepath.Join(s.DataDir, sub))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, e := range entries {
			name := e.Name()
			if len(name) == len("2006-01-02.parquet") && filepath.Ext(name) == ".parquet" {
				seen[name[:10]] = true
			}
		}
	}

	days := make([]string, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Strings(days)
	return days, nil
}

// ---------------------------------------------------------------------------
// Path and file helpers
// ---------------------------------------------------------------------------

// valuePath returns the file for a day of value samples.
// Layout: <dataDir>/values/<YYYY-MM-DD>.parquet
func (s *ParquetStore) valuePath(day string) string {
	return filepath.Join(s.DataDir, "values", day+".parquet")
}

// tradePath returns the file for a day of the trade log.
// Layout: <dataDir>/trades/<YYYY-MM-DD>.parquet
func (s *ParquetStore) tradePath(day string) string {
	return filepath.Join(s.DataDir, "trades", day+".parquet")
}

func inRange(ts, start, end time.Time) bool {
	return !ts.Before(start) && !ts.After(end)
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	return parquet.ReadFile[T](path)
}

// mergeValueRecords deduplicates samples by timestamp, preferring new
// records over existing ones. Results are sorted by timestamp.
func mergeValueRecords(existing, incoming []ValueRecord) []ValueRecord {
	seen := make(map[int64]ValueRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.Timestamp] = r
	}
	for _, r := range incoming {
		seen[r.Timestamp] = r
	}

	merged := make([]ValueRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}

// mergeTradeRecords deduplicates trades by id, preferring new records
// over existing ones. Results are sorted by timestamp.
func mergeTradeRecords(existing, incoming []TradeRecord) []TradeRecord {
	seen := make(map[string]TradeRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.ID] = r
	}
	for _, r := range incoming {
		seen[r.ID] = r
	}

	merged := make([]TradeRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
