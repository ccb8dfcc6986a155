package papertrade

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newFakeServer serves a minimal hand-rolled papertrade API for SDK
// round-trips.
func newFakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/portfolio", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(PortfolioSummary{
			Currency:      "USD",
			HoldingsValue: 1650,
			BuyingPower:   98500,
		})
	})
	mux.HandleFunc("GET /api/account", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]Account{"account": {
			BuyingPower: 98500, DisplayCurrency: "USD", XP: 20, Level: 1, Rank: "Novice",
		}})
	})
	mux.HandleFunc("GET /api/quotes", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbols") != "AAPL" {
			http.Error(w, "unexpected filter", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]map[string]Quote{"quotes": {
			"AAPL": {Symbol: "AAPL", Price: 165, Currency: "USD"},
		}})
	})
	mux.HandleFunc("POST /api/orders", func(w http.ResponseWriter, r *http.Request) {
		var req OrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		if req.Shares > 100 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{"error": "insufficient buying power"})
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"order":       Order{ID: "ord-1", Symbol: req.Symbol, Side: req.Side, Shares: req.Shares, Status: "PENDING"},
			"buyingPower": 99000.0,
		})
	})
	mux.HandleFunc("DELETE /api/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "ord-1" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "unknown order"})
			return
		}
		json.NewEncoder(w).Encode(map[string]Account{"account": {BuyingPower: 100000}})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestPortfolioRoundTrip(t *testing.T) {
	ts := newFakeServer(t)
	c := NewClient(ts.URL)

	got, err := c.Portfolio(context.Background())
	if err != nil {
		t.Fatalf("Portfolio failed: %v", err)
	}
	if got.HoldingsValue != 1650 || got.Currency != "USD" {
		t.Errorf("summary = %+v, want 1650 USD", got)
	}
}

func TestAccountRoundTrip(t *testing.T) {
	ts := newFakeServer(t)
	c := NewClient(ts.URL, WithTimeout(5*time.Second))

	acct, err := c.Account(context.Background())
	if err != nil {
		t.Fatalf("Account failed: %v", err)
	}
	if acct.Rank != "Novice" || acct.XP != 20 {
		t.Errorf("account = %+v, want Novice with 20 XP", acct)
	}
}

func TestQuotesFilterPassedThrough(t *testing.T) {
	ts := newFakeServer(t)
	c := NewClient(ts.URL)

	quotes, err := c.Quotes(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Quotes failed: %v", err)
	}
	if q, ok := quotes["AAPL"]; !ok || q.Price != 165 {
		t.Errorf("quotes = %+v, want AAPL @ 165", quotes)
	}
}

func TestPlaceOrder(t *testing.T) {
	ts := newFakeServer(t)
	c := NewClient(ts.URL)

	order, bp, err := c.PlaceOrder(context.Background(), OrderRequest{
		Symbol: "AAPL", Side: Buy, Shares: 10, LimitPrice: 100,
	})
	if err != nil {
		t.Fatalf("PlaceOrder failed: %v", err)
	}
	if order.ID != "ord-1" || bp != 99000 {
		t.Errorf("order = %+v, bp = %v, want ord-1 and 99000", order, bp)
	}
}

func TestAPIErrorCarriesReason(t *testing.T) {
	ts := newFakeServer(t)
	c := NewClient(ts.URL)

	_, _, err := c.PlaceOrder(context.Background(), OrderRequest{
		Symbol: "AAPL", Side: Buy, Shares: 5000, LimitPrice: 100,
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want 422", apiErr.Status)
	}
	if apiErr.Reason != "insufficient buying power" {
		t.Errorf("Reason = %q, want server reason", apiErr.Reason)
	}
}

func TestCancelUnknownOrderIs404(t *testing.T) {
	ts := newFakeServer(t)
	c := NewClient(ts.URL)

	err := c.CancelOrder(context.Background(), "nope")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 APIError", err)
	}

	if err := c.CancelOrder(context.Background(), "ord-1"); err != nil {
		t.Fatalf("CancelOrder failed: %v", err)
	}
}

func TestWSURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://localhost:8650", "ws://localhost:8650"},
		{"https://pt.example.com", "wss://pt.example.com"},
	}
	for _, tt := range tests {
		if got := wsURL(tt.in); got != tt.want {
			t.Errorf("wsURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
