package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/Open-Papertrade/papertrade/internal/domain"
	"github.com/Open-Papertrade/papertrade/internal/portfolio"
)

func TestParquetStorePaths(t *testing.T) {
	ps := NewParquetStore("/data")

	if got, want := ps.valuePath("2026-06-15"), filepath.Join("/data", "values", "2026-06-15.parquet"); got != want {
		t.Errorf("valuePath = %s, want %s", got, want)
	}
	if got, want := ps.tradePath("2026-06-15"), filepath.Join("/data", "trades", "2026-06-15.parquet"); got != want {
		t.Errorf("tradePath = %s, want %s", got, want)
	}
}

func TestParquetStoreValuesRoundTrip(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	day := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	points := []domain.ValuePoint{
		{At: day.Add(10 * time.Hour), Value: 105000, Invested: 100000, Currency: "USD"},
		{At: day.Add(11 * time.Hour), Value: 105500, Invested: 100000, Currency: "USD"},
	}
	if err := ps.AppendValues(ctx, points); err != nil {
		t.Fatalf("AppendValues: %v", err)
	}

	got, err := ps.ReadValues(ctx, day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ReadValues: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadValues returned %d points, want 2", len(got))
	}
	if got[0].Value != 105000 || got[1].Value != 105500 {
		t.Errorf("values = %v, %v, want 105000, 105500", got[0].Value, got[1].Value)
	}

	// A narrower window excludes the second sample.
	got, err = ps.ReadValues(ctx, day, day.Add(10*time.Hour+30*time.Minute))
	if err != nil {
		t.Fatalf("ReadValues (narrow): %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("narrow ReadValues returned %d points, want 1", len(got))
	}
}

func TestParquetStoreValuesMergeDedup(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	at := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	first := domain.ValuePoint{At: at, Value: 100, Invested: 90, Currency: "USD"}
	if err := ps.AppendValues(ctx, []domain.ValuePoint{first}); err != nil {
		t.Fatalf("AppendValues (first): %v", err)
	}

	// Same timestamp replayed with a corrected value: merged, not doubled.
	second := domain.ValuePoint{At: at, Value: 101, Invested: 90, Currency: "USD"}
	if err := ps.AppendValues(ctx, []domain.ValuePoint{second}); err != nil {
		t.Fatalf("AppendValues (second): %v", err)
	}

	got, err := ps.ReadValues(ctx, at.Add(-time.Hour), at.Add(time.Hour))
	if err != nil {
		t.Fatalf("ReadValues: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d points after dedup, want 1", len(got))
	}
	if got[0].Value != 101 {
		t.Errorf("deduped value = %v, want newer 101", got[0].Value)
	}
}

func TestParquetStoreTradesRoundTrip(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()

	at := time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)
	trades := []domain.Trade{
		{ID: "t1", Side: domain.OrderSideBuy, Symbol: "AAPL", Shares: 10, Price: 150, Currency: "USD", XP: 20, ExecutedAt: at},
		{ID: "t2", OrderID: "o1", Side: domain.OrderSideSell, Symbol: "NVDA", Shares: 2, Price: 500, Currency: "USD", XP: 12, ExecutedAt: at.Add(time.Minute)},
	}
	if err := ps.AppendTrades(ctx, trades); err != nil {
		t.Fatalf("AppendTrades: %v", err)
	}
	// Replaying the same trades must not duplicate them.
	if err := ps.AppendTrades(ctx, trades[:1]); err != nil {
		t.Fatalf("AppendTrades (replay): %v", err)
	}

	got, err := ps.ReadTrades(ctx, at.Add(-time.Hour), at.Add(time.Hour))
	if err != nil {
		t.Fatalf("ReadTrades: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ReadTrades returned %d trades, want 2", len(got))
	}
	if got[0].ID != "t1" || got[1].ID != "t2" {
		t.Errorf("trade order = %s, %s, want t1, t2 by timestamp", got[0].ID, got[1].ID)
	}
	if got[1].OrderID != "o1" {
		t.Errorf("OrderID = %q, want o1", got[1].OrderID)
	}

	days, err := ps.ListDays()
	if err != nil {
		t.Fatalf("ListDays: %v", err)
	}
	if len(days) != 1 || days[0] != "2026-08-28" {
		t.Errorf("ListDays = %v, want [2026-08-28]", days)
	}
}

func TestSamplerRecordsEvents(t *testing.T) {
	ps := NewParquetStore(t.TempDir())
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewSampler(nil, ps, ps, time.Minute, log)

	at := time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC)
	s.handle(ctx, portfolio.Event{
		Type: portfolio.EventPortfolio,
		Summary: &domain.PortfolioSummary{
			Currency: "USD", HoldingsValue: 1650, TotalInvested: 1500, AsOf: at,
		},
	})
	trade := domain.Trade{ID: "t1", Side: domain.OrderSideBuy, Symbol: "AAPL",
		Shares: 10, Price: 165, Currency: "USD", ExecutedAt: at}
	s.handle(ctx, portfolio.Event{Type: portfolio.EventFill, Trade: &trade})

	// A second portfolio event inside the interval is skipped.
	s.handle(ctx, portfolio.Event{
		Type: portfolio.EventPortfolio,
		Summary: &domain.PortfolioSummary{
			Currency: "USD", HoldingsValue: 1700, TotalInvested: 1500, AsOf: at.Add(time.Second),
		},
	})

	values, err := ps.ReadValues(ctx, at.Add(-time.Hour), at.Add(time.Hour))
	if err != nil {
		t.Fatalf("ReadValues: %v", err)
	}
	if len(values) != 1 || values[0].Value != 1650 {
		t.Fatalf("values = %+v, want one sample at 1650", values)
	}

	trades, err := ps.ReadTrades(ctx, at.Add(-time.Hour), at.Add(time.Hour))
	if err != nil {
		t.Fatalf("ReadTrades: %v", err)
	}
	if len(trades) != 1 || trades[0].ID != "t1" {
		t.Fatalf("trades = %+v, want the single fill", trades)
	}
}
