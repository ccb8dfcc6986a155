package httpapi

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Open-Papertrade/papertrade/internal/portfolio"
)

func TestStreamSnapshotThenLive(t *testing.T) {
	ts, sim, m := newTestServer(t)
	sim.SetPrice("AAPL", 150)
	// A refresh only broadcasts when the mirror has symbols to price.
	m.Watchlist().Add("AAPL")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/stream"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.CloseNow()

	// First frame is always the snapshot.
	var first portfolio.Event
	if err := wsjson.Read(ctx, conn, &first); err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	if first.Type != portfolio.EventSnapshot || first.Summary == nil {
		t.Fatalf("first event = %+v, want snapshot with summary", first)
	}

	// A refresh broadcasts a live portfolio event.
	if err := m.RefreshPrices(context.Background()); err != nil {
		t.Fatalf("RefreshPrices failed: %v", err)
	}
	for {
		var ev portfolio.Event
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			t.Fatalf("reading live event: %v", err)
		}
		if ev.Type == portfolio.EventPortfolio {
			if ev.Summary == nil {
				t.Fatal("portfolio event without summary")
			}
			return
		}
	}
}
