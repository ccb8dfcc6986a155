package papertrade

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to a papertrade-server instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient creates a Client for the server at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the server.
type APIError struct {
	Status int
	Reason string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil {
			apiErr.Reason = e.Error
		}
		return fmt.Errorf("%s %s: %w", method, path, apiErr)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
		}
	}
	return nil
}

// Portfolio fetches the aggregate portfolio summary.
func (c *Client) Portfolio(ctx context.Context) (PortfolioSummary, error) {
	var out PortfolioSummary
	err := c.do(ctx, http.MethodGet, "/api/portfolio", nil, &out)
	return out, err
}

// Refresh triggers a full server-side refresh and returns the fresh
// summary.
func (c *Client) Refresh(ctx context.Context) (PortfolioSummary, error) {
	var out PortfolioSummary
	err := c.do(ctx, http.MethodGet, "/api/refresh", nil, &out)
	return out, err
}

// Holdings lists current holdings.
func (c *Client) Holdings(ctx context.Context) ([]Holding, error) {
	var out struct {
		Holdings []Holding `json:"holdings"`
	}
	err := c.do(ctx, http.MethodGet, "/api/holdings", nil, &out)
	return out.Holdings, err
}

// Quotes fetches cached quotes, optionally filtered to symbols.
func (c *Client) Quotes(ctx context.Context, symbols ...string) (map[string]Quote, error) {
	path := "/api/quotes"
	if len(symbols) > 0 {
		path += "?symbols=" + url.QueryEscape(strings.Join(symbols, ","))
	}
	var out struct {
		Quotes map[string]Quote `json:"quotes"`
	}
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Quotes, err
}

// Account fetches the account snapshot.
func (c *Client) Account(ctx context.Context) (Account, error) {
	var out struct {
		Account Account `json:"account"`
	}
	err := c.do(ctx, http.MethodGet, "/api/account", nil, &out)
	return out.Account, err
}

// Rates fetches the USD-pivot exchange rate table.
func (c *Client) Rates(ctx context.Context) (map[string]float64, error) {
	var out struct {
		Rates map[string]float64 `json:"rates"`
	}
	err := c.do(ctx, http.MethodGet, "/api/rates", nil, &out)
	return out.Rates, err
}

// Orders lists pending orders.
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var out struct {
		Orders []Order `json:"orders"`
	}
	err := c.do(ctx, http.MethodGet, "/api/orders", nil, &out)
	return out.Orders, err
}

// PlaceOrder places a resting limit order and returns it with the
// post-reservation buying power.
func (c *Client) PlaceOrder(ctx context.Context, req OrderRequest) (Order, float64, error) {
	var out struct {
		Order       Order   `json:"order"`
		BuyingPower float64 `json:"buyingPower"`
	}
	err := c.do(ctx, http.MethodPost, "/api/orders", req, &out)
	return out.Order, out.BuyingPower, err
}

// CancelOrder cancels a pending order.
func (c *Client) CancelOrder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/orders/"+url.PathEscape(id), nil, nil)
}

// Trade runs an immediate market execution.
func (c *Client) Trade(ctx context.Context, req TradeRequest) (TradeResult, error) {
	var out TradeResult
	err := c.do(ctx, http.MethodPost, "/api/trades", req, &out)
	return out, err
}

// MarketStatus asks whether the venue trading symbol is open. Both
// arguments may be empty; the server falls back to the account's display
// market.
func (c *Client) MarketStatus(ctx context.Context, exchange, symbol string) (MarketStatus, error) {
	q := url.Values{}
	if exchange != "" {
		q.Set("exchange", exchange)
	}
	if symbol != "" {
		q.Set("symbol", symbol)
	}
	path := "/api/market/status"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out MarketStatus
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Watchlist lists watched symbols.
func (c *Client) Watchlist(ctx context.Context) ([]string, error) {
	var out struct {
		Symbols []string `json:"symbols"`
	}
	err := c.do(ctx, http.MethodGet, "/api/watchlist", nil, &out)
	return out.Symbols, err
}

// WatchSymbol adds symbol to the watchlist.
func (c *Client) WatchSymbol(ctx context.Context, symbol string) error {
	return c.do(ctx, http.MethodPut, "/api/watchlist/"+url.PathEscape(symbol), nil, nil)
}

// UnwatchSymbol removes symbol from the watchlist.
func (c *Client) UnwatchSymbol(ctx context.Context, symbol string) error {
	return c.do(ctx, http.MethodDelete, "/api/watchlist/"+url.PathEscape(symbol), nil, nil)
}

// Alerts lists price alerts.
func (c *Client) Alerts(ctx context.Context) ([]Alert, error) {
	var out struct {
		Alerts []Alert `json:"alerts"`
	}
	err := c.do(ctx, http.MethodGet, "/api/alerts", nil, &out)
	return out.Alerts, err
}

// SetAlert creates a price alert.
func (c *Client) SetAlert(ctx context.Context, req AlertRequest) (Alert, error) {
	var out Alert
	err := c.do(ctx, http.MethodPost, "/api/alerts", req, &out)
	return out, err
}

// DeleteAlert removes an alert by id.
func (c *Client) DeleteAlert(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/alerts/"+url.PathEscape(id), nil, nil)
}

// ValueHistory fetches portfolio value samples for the last days days.
func (c *Client) ValueHistory(ctx context.Context, days int) ([]ValuePoint, error) {
	var out struct {
		Values []ValuePoint `json:"values"`
	}
	err := c.do(ctx, http.MethodGet, "/api/history/values?days="+strconv.Itoa(days), nil, &out)
	return out.Values, err
}

// TradeHistory fetches executed trades for the last days days.
func (c *Client) TradeHistory(ctx context.Context, days int) ([]Trade, error) {
	var out struct {
		Trades []Trade `json:"trades"`
	}
	err := c.do(ctx, http.MethodGet, "/api/history/trades?days="+strconv.Itoa(days), nil, &out)
	return out.Trades, err
}
