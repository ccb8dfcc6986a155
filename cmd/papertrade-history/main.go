// papertrade-history inspects the on-disk parquet history: portfolio
// value samples by default, the trade log with -trades.
//
// Usage:
//
//	go run cmd/papertrade-history/main.go [-dir data] [-day 2026-08-29] [-trades]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/Open-Papertrade/papertrade/internal/fx"
	"github.com/Open-Papertrade/papertrade/internal/store"
)

func main() {
	dir := flag.String("dir", "data", "history data directory")
	day := flag.String("day", "", "UTC day to print (YYYY-MM-DD, default: all)")
	trades := flag.Bool("trades", false, "print the trade log instead of value samples")
	flag.Parse()

	ps := store.NewParquetStore(*dir)
	ctx := context.Background()

	start, end, err := window(ps, *day)
	if err != nil {
		log.Fatalf("error: %v", err)
	}

	if *trades {
		printTrades(ctx, ps, start, end)
	} else {
		printValues(ctx, ps, start, end)
	}
}

// window resolves the requested day, or the full span of recorded days,
// into a [start, end) range.
func window(ps *store.ParquetStore, day string) (time.Time, time.Time, error) {
	if day != "" {
		start, err := time.Parse("2006-01-02", day)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("parsing -day: %w", err)
		}
		return start, start.AddDate(0, 0, 1), nil
	}

	days, err := ps.ListDays()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if len(days) == 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("no history recorded")
	}
	start, err := time.Parse("2006-01-02", days[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	last, err := time.Parse("2006-01-02", days[len(days)-1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, last.AddDate(0, 0, 1), nil
}

func printValues(ctx context.Context, ps *store.ParquetStore, start, end time.Time) {
	points, err := ps.ReadValues(ctx, start, end)
	if err != nil {
		log.Fatalf("reading values: %v", err)
	}
	if len(points) == 0 {
		fmt.Println("no value samples in range")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tVALUE\tINVESTED\tRETURNS")
	for _, p := range points {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			p.At.UTC().Format("2006-01-02 15:04:05"),
			fx.Format(p.Value, p.Currency),
			fx.Format(p.Invested, p.Currency),
			fx.FormatSigned(p.Value-p.Invested, p.Currency))
	}
	w.Flush()
	fmt.Printf("%d samples\n", len(points))
}

func printTrades(ctx context.Context, ps *store.ParquetStore, start, end time.Time) {
	recs, err := ps.ReadTrades(ctx, start, end)
	if err != nil {
		log.Fatalf("reading trades: %v", err)
	}
	if len(recs) == 0 {
		fmt.Println("no trades in range")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tSIDE\tSYMBOL\tSHARES\tPRICE\tXP")
	for _, t := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\n",
			t.ExecutedAt.UTC().Format("2006-01-02 15:04:05"),
			t.Side, t.Symbol, t.Shares,
			fx.Format(t.Price, t.Currency), t.XP)
	}
	w.Flush()
	fmt.Printf("%d trades\n", len(recs))
}
