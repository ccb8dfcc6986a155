package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/Open-Papertrade/papertrade/internal/brokerage"
	"github.com/Open-Papertrade/papertrade/internal/config"
	"github.com/Open-Papertrade/papertrade/internal/domain"
	"github.com/Open-Papertrade/papertrade/internal/market"
	"github.com/Open-Papertrade/papertrade/internal/portfolio"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) (*httptest.Server, *brokerage.Simulator, *portfolio.Mirror) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default(dir)

	sim, err := brokerage.OpenSimulator(cfg, testLogger())
	if err != nil {
		t.Fatalf("OpenSimulator failed: %v", err)
	}
	t.Cleanup(func() { sim.Close() })

	watch := portfolio.NewWatchlist(filepath.Join(dir, "watchlist.json"), testLogger())
	m := portfolio.NewMirror(sim, watch, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m.Start(ctx)
	if err := m.RefreshAll(ctx); err != nil {
		t.Fatalf("RefreshAll failed: %v", err)
	}

	srv := NewServer(m, market.NewClock(nil, testLogger()), nil, testLogger())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, sim, m
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp
}

func postJSON(t *testing.T, url string, body any, out any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp
}

func do(t *testing.T, method, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("building %s %s: %v", method, url, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestPortfolioEndpoint(t *testing.T) {
	ts, _, _ := newTestServer(t)

	var summary domain.PortfolioSummary
	resp := getJSON(t, ts.URL+"/api/portfolio", &summary)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if summary.Currency == "" {
		t.Error("summary has no display currency")
	}

	var acct AccountResponse
	getJSON(t, ts.URL+"/api/account", &acct)
	if acct.Account.BuyingPower != 100000 {
		t.Errorf("BuyingPower = %v, want 100000", acct.Account.BuyingPower)
	}
}

func TestPlaceAndCancelOrder(t *testing.T) {
	ts, sim, _ := newTestServer(t)
	sim.SetPrice("AAPL", 150)

	var placed OrderResponse
	resp := postJSON(t, ts.URL+"/api/orders", OrderRequest{
		Symbol: "aapl", Side: domain.OrderSideBuy, Shares: 10, LimitPrice: 140, Currency: "USD",
	}, &placed)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if placed.Order.Symbol != "AAPL" {
		t.Errorf("symbol = %q, want uppercased AAPL", placed.Order.Symbol)
	}
	if placed.BuyingPower != 98600 {
		t.Errorf("BuyingPower = %v, want 98600 after 1400 reservation", placed.BuyingPower)
	}

	var orders OrdersResponse
	getJSON(t, ts.URL+"/api/orders", &orders)
	if len(orders.Orders) != 1 {
		t.Fatalf("orders = %+v, want one pending", orders.Orders)
	}

	resp = do(t, http.MethodDelete, ts.URL+"/api/orders/"+placed.Order.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel status = %d, want 200", resp.StatusCode)
	}
	getJSON(t, ts.URL+"/api/orders", &orders)
	if len(orders.Orders) != 0 {
		t.Error("cancelled order still listed")
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	ts, _, _ := newTestServer(t)

	// Bad input is a 400.
	resp := postJSON(t, ts.URL+"/api/orders", OrderRequest{
		Symbol: "AAPL", Side: domain.OrderSideBuy, Shares: 0, LimitPrice: 100,
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("zero shares status = %d, want 400", resp.StatusCode)
	}

	// Business rejection is a 422.
	resp = postJSON(t, ts.URL+"/api/orders", OrderRequest{
		Symbol: "AAPL", Side: domain.OrderSideBuy, Shares: 5000, LimitPrice: 100, Currency: "USD",
	}, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("insufficient funds status = %d, want 422", resp.StatusCode)
	}
}

func TestCancelUnknownOrder(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp := do(t, http.MethodDelete, ts.URL+"/api/orders/no-such-order")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestTradeEndpoint(t *testing.T) {
	ts, sim, _ := newTestServer(t)
	sim.SetPrice("AAPL", 150)

	var res domain.TradeResult
	resp := postJSON(t, ts.URL+"/api/trades", TradeRequest{
		Symbol: "AAPL", Side: domain.OrderSideBuy, Shares: 10,
	}, &res)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if res.Trade.Price != 150 || res.Trade.Shares != 10 {
		t.Errorf("trade = %+v, want 10 @ 150", res.Trade)
	}

	var holdings HoldingsResponse
	getJSON(t, ts.URL+"/api/holdings", &holdings)
	if len(holdings.Holdings) != 1 || holdings.Holdings[0].Shares != 10 {
		t.Fatalf("holdings = %+v, want 10 AAPL", holdings.Holdings)
	}

	// Selling shares we do not hold is a 422.
	resp = postJSON(t, ts.URL+"/api/trades", TradeRequest{
		Symbol: "MSFT", Side: domain.OrderSideSell, Shares: 1,
	}, nil)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("overdraw sell status = %d, want 422", resp.StatusCode)
	}
}

func TestQuotesFilter(t *testing.T) {
	ts, sim, m := newTestServer(t)
	sim.SetPrice("AAPL", 150)
	sim.SetPrice("TSLA", 250)
	m.Watchlist().Add("AAPL")
	m.Watchlist().Add("TSLA")
	if err := m.RefreshPrices(context.Background()); err != nil {
		t.Fatalf("RefreshPrices failed: %v", err)
	}

	var quotes QuotesResponse
	getJSON(t, ts.URL+"/api/quotes?symbols=aapl", &quotes)
	if len(quotes.Quotes) != 1 {
		t.Fatalf("quotes = %+v, want only AAPL", quotes.Quotes)
	}
	if q := quotes.Quotes["AAPL"]; q.Price != 150 {
		t.Errorf("AAPL price = %v, want 150", q.Price)
	}
}

func TestMarketStatusCrypto(t *testing.T) {
	ts, _, _ := newTestServer(t)

	var st domain.MarketStatus
	getJSON(t, ts.URL+"/api/market/status?symbol=BTC-USD", &st)
	if !st.Open || st.Exchange != "Crypto" {
		t.Errorf("status = %+v, want open Crypto venue", st)
	}
}

func TestWatchlistCRUD(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := do(t, http.MethodPut, ts.URL+"/api/watchlist/tsla")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("add status = %d, want 204", resp.StatusCode)
	}

	var list WatchlistResponse
	getJSON(t, ts.URL+"/api/watchlist", &list)
	if len(list.Symbols) != 1 || list.Symbols[0] != "TSLA" {
		t.Fatalf("watchlist = %v, want [TSLA]", list.Symbols)
	}

	resp = do(t, http.MethodDelete, ts.URL+"/api/watchlist/TSLA")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("remove status = %d, want 204", resp.StatusCode)
	}
	resp = do(t, http.MethodDelete, ts.URL+"/api/watchlist/TSLA")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second remove status = %d, want 404", resp.StatusCode)
	}
}

func TestAlertCRUD(t *testing.T) {
	ts, _, _ := newTestServer(t)

	var alert domain.Alert
	resp := postJSON(t, ts.URL+"/api/alerts", AlertRequest{
		Symbol: "aapl", Condition: domain.AlertAbove, TargetPrice: 200,
	}, &alert)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if alert.ID == "" || alert.Symbol != "AAPL" || !alert.Enabled {
		t.Fatalf("alert = %+v, want enabled AAPL alert with an id", alert)
	}

	resp = postJSON(t, ts.URL+"/api/alerts", AlertRequest{
		Symbol: "AAPL", Condition: "sideways", TargetPrice: 200,
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad condition status = %d, want 400", resp.StatusCode)
	}

	resp = do(t, http.MethodDelete, ts.URL+"/api/alerts/"+alert.ID)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}
	resp = do(t, http.MethodDelete, ts.URL+"/api/alerts/"+alert.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestHistoryUnconfigured(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp := getJSON(t, ts.URL+"/api/history/values", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 with no history store", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts, _, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/portfolio", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
}
