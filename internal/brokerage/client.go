package brokerage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Open-Papertrade/papertrade/internal/domain"
	"github.com/Open-Papertrade/papertrade/internal/fx"
	"github.com/Open-Papertrade/papertrade/internal/util"
)

// Compile-time interface check.
var _ Service = (*Client)(nil)

// apiError is the error payload the remote service returns on non-2xx
// responses.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client implements Service against a remote account/price service over
// HTTP+JSON. Mutating calls carry an Idempotency-Key header; read calls
// are retried once on failure.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *util.RateLimiter
	log     *slog.Logger
}

// NewClient creates a Client for the service at baseURL. token may be
// empty for unauthenticated endpoints.
func NewClient(baseURL, token string, ratePerMin int, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: util.NewRateLimiter(ratePerMin),
		log:     log,
	}
}

// Name returns "remote".
func (c *Client) Name() string { return "remote" }

// do performs one request. idemKey, when non-empty, is sent as the
// Idempotency-Key header so the service can deduplicate replays.
func (c *Client) do(ctx context.Context, method, path, idemKey string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var e apiError
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Message != "" {
			return fmt.Errorf("%s %s: %s: %w", method, path, resp.Status, mapAPIError(e))
		}
		return fmt.Errorf("%s %s: unexpected status %s", method, path, resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
		}
	}
	return nil
}

// get performs a read call with one retry on transient failure.
func (c *Client) get(ctx context.Context, path string, out any) error {
	return util.Retry(ctx, 2, 500*time.Millisecond, func() error {
		return c.do(ctx, http.MethodGet, path, "", nil, out)
	})
}

// mapAPIError converts service error codes into the shared sentinels so
// callers can use errors.Is across backends.
func mapAPIError(e apiError) error {
	switch e.Code {
	case "INSUFFICIENT_FUNDS":
		return ErrInsufficientFunds
	case "INSUFFICIENT_SHARES":
		return ErrInsufficientShares
	case "ORDER_NOT_PENDING":
		return ErrOrderNotPending
	case "UNKNOWN_ORDER":
		return ErrUnknownOrder
	}
	return fmt.Errorf("%s (%s)", e.Message, e.Code)
}

// GetQuotes fetches the latest quotes for symbols in one batch.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	if len(symbols) == 0 {
		return map[string]domain.Quote{}, nil
	}

	var resp struct {
		Quotes map[string]domain.Quote `json:"quotes"`
	}
	path := "/v1/quotes?symbols=" + url.QueryEscape(strings.Join(symbols, ","))
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}

	// Stamp quotes the service sent without an as-of time.
	now := time.Now()
	for sym, q := range resp.Quotes {
		q.Symbol = sym
		if q.AsOf.IsZero() {
			q.AsOf = now
		}
		resp.Quotes[sym] = q
	}
	return resp.Quotes, nil
}

// GetHoldings fetches all account holdings.
func (c *Client) GetHoldings(ctx context.Context) ([]domain.Holding, error) {
	var resp struct {
		Holdings []domain.Holding `json:"holdings"`
	}
	if err := c.get(ctx, "/v1/holdings", &resp); err != nil {
		return nil, err
	}
	return resp.Holdings, nil
}

// GetPendingOrders fetches orders still in PENDING state.
func (c *Client) GetPendingOrders(ctx context.Context) ([]domain.Order, error) {
	var resp struct {
		Orders []domain.Order `json:"orders"`
	}
	if err := c.get(ctx, "/v1/orders?status=PENDING", &resp); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

// CreateOrder places a limit order.
func (c *Client) CreateOrder(ctx context.Context, req TradeRequest) (domain.Order, float64, error) {
	var resp struct {
		Order       domain.Order `json:"order"`
		BuyingPower float64      `json:"buyingPower"`
	}
	err := c.do(ctx, http.MethodPost, "/v1/orders", uuid.NewString(), req, &resp)
	if err != nil {
		return domain.Order{}, 0, err
	}
	return resp.Order, resp.BuyingPower, nil
}

// FillOrder reports a limit order fill observed by the matcher.
func (c *Client) FillOrder(ctx context.Context, id string, observedPrice float64) (domain.TradeResult, error) {
	body := struct {
		ObservedPrice float64 `json:"observedPrice"`
	}{ObservedPrice: observedPrice}

	var resp domain.TradeResult
	err := c.do(ctx, http.MethodPost, "/v1/orders/"+url.PathEscape(id)+"/fill", uuid.NewString(), body, &resp)
	if err != nil {
		return domain.TradeResult{}, err
	}
	return resp, nil
}

// CancelOrder cancels a pending order.
func (c *Client) CancelOrder(ctx context.Context, id string) (float64, error) {
	var resp struct {
		BuyingPower float64 `json:"buyingPower"`
	}
	err := c.do(ctx, http.MethodDelete, "/v1/orders/"+url.PathEscape(id), "", nil, &resp)
	if err != nil {
		return 0, err
	}
	return resp.BuyingPower, nil
}

// ExecuteTrade runs an immediate market execution.
func (c *Client) ExecuteTrade(ctx context.Context, req TradeRequest) (domain.TradeResult, error) {
	var resp domain.TradeResult
	err := c.do(ctx, http.MethodPost, "/v1/trades", uuid.NewString(), req, &resp)
	if err != nil {
		return domain.TradeResult{}, err
	}
	return resp, nil
}

// GetAccount fetches the account snapshot.
func (c *Client) GetAccount(ctx context.Context) (domain.Account, error) {
	var resp struct {
		Account domain.Account `json:"account"`
	}
	if err := c.get(ctx, "/v1/account", &resp); err != nil {
		return domain.Account{}, err
	}
	return resp.Account, nil
}

// MarketStatus asks the holiday-aware service whether exchange is open.
func (c *Client) MarketStatus(ctx context.Context, exchange string) (bool, string, error) {
	var resp struct {
		Open    bool   `json:"open"`
		Holiday string `json:"holiday"`
	}
	path := "/v1/markets/" + url.PathEscape(exchange) + "/status"
	if err := c.do(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return false, "", err
	}
	return resp.Open, resp.Holiday, nil
}

// GetExchangeRates fetches the USD-pivot rate table.
func (c *Client) GetExchangeRates(ctx context.Context) (fx.Rates, error) {
	var resp struct {
		Rates fx.Rates `json:"rates"`
	}
	if err := c.get(ctx, "/v1/rates", &resp); err != nil {
		return nil, err
	}
	return resp.Rates, nil
}
