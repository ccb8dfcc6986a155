package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Open-Papertrade/papertrade/internal/brokerage"
	"github.com/Open-Papertrade/papertrade/internal/domain"
	"github.com/Open-Papertrade/papertrade/internal/market"
	"github.com/Open-Papertrade/papertrade/internal/portfolio"
	"github.com/Open-Papertrade/papertrade/internal/store"
)

// Server serves the papertrade HTTP API on top of the mirror.
type Server struct {
	mirror  *portfolio.Mirror
	clock   *market.Clock
	history *store.ParquetStore
	log     *slog.Logger
}

// NewServer creates a Server. history may be nil, which disables the
// history endpoints with 404s.
func NewServer(m *portfolio.Mirror, clock *market.Clock, history *store.ParquetStore, log *slog.Logger) *Server {
	return &Server{mirror: m, clock: clock, history: history, log: log}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/portfolio", s.handlePortfolio)
	mux.HandleFunc("GET /api/holdings", s.handleHoldings)
	mux.HandleFunc("GET /api/quotes", s.handleQuotes)
	mux.HandleFunc("GET /api/account", s.handleAccount)
	mux.HandleFunc("GET /api/rates", s.handleRates)
	mux.HandleFunc("GET /api/refresh", s.handleRefresh)

	mux.HandleFunc("GET /api/orders", s.handleOrders)
	mux.HandleFunc("POST /api/orders", s.handlePlaceOrder)
	mux.HandleFunc("DELETE /api/orders/{id}", s.handleCancelOrder)
	mux.HandleFunc("POST /api/trades", s.handleTrade)

	mux.HandleFunc("GET /api/market/status", s.handleMarketStatus)

	mux.HandleFunc("GET /api/watchlist", s.handleWatchlist)
	mux.HandleFunc("PUT /api/watchlist/{symbol}", s.handleAddWatchlist)
	mux.HandleFunc("DELETE /api/watchlist/{symbol}", s.handleRemoveWatchlist)

	mux.HandleFunc("GET /api/alerts", s.handleAlerts)
	mux.HandleFunc("POST /api/alerts", s.handleSetAlert)
	mux.HandleFunc("DELETE /api/alerts/{id}", s.handleDeleteAlert)

	mux.HandleFunc("GET /api/history/values", s.handleHistoryValues)
	mux.HandleFunc("GET /api/history/trades", s.handleHistoryTrades)

	mux.HandleFunc("GET /api/stream", s.handleStream)
}

// Handler returns an http.Handler with CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(s.logMiddleware(mux))
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// writeServiceError maps brokerage errors to HTTP statuses: business
// rejections are 422 with the reason, unknown ids 404, everything else
// a 502 because the account service is upstream of this API.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, brokerage.ErrInsufficientFunds),
		errors.Is(err, brokerage.ErrInsufficientShares),
		errors.Is(err, brokerage.ErrOrderNotPending):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, brokerage.ErrUnknownOrder):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

// ---------------------------------------------------------------------------
// Portfolio and quotes
// ---------------------------------------------------------------------------

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.mirror.Portfolio())
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HoldingsResponse{Holdings: s.mirror.Holdings()})
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	quotes := s.mirror.Quotes()
	if raw := r.URL.Query().Get("symbols"); raw != "" {
		filtered := make(map[string]domain.Quote)
		for _, sym := range strings.Split(raw, ",") {
			sym = strings.ToUpper(strings.TrimSpace(sym))
			if q, ok := quotes[sym]; ok {
				filtered[sym] = q
			}
		}
		quotes = filtered
	}
	writeJSON(w, QuotesResponse{Quotes: quotes})
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, AccountResponse{Account: s.mirror.Account()})
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, RatesResponse{Rates: s.mirror.Rates()})
}

// handleRefresh triggers a full refresh and returns the fresh summary.
// A failed refresh still answers with the stale mirror state; the
// client sees last-known data either way.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.mirror.RefreshAll(r.Context()); err != nil {
		s.log.Warn("manual refresh failed", "err", err)
	}
	writeJSON(w, s.mirror.Portfolio())
}

// ---------------------------------------------------------------------------
// Orders and trades
// ---------------------------------------------------------------------------

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, OrdersResponse{Orders: s.mirror.Orders()})
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid order body")
		return
	}
	if req.Symbol == "" || req.Shares <= 0 || req.LimitPrice <= 0 {
		writeError(w, http.StatusBadRequest, "symbol, positive shares, and positive limitPrice required")
		return
	}

	order, err := s.mirror.PlaceLimitOrder(r.Context(), brokerage.TradeRequest{
		Symbol:     strings.ToUpper(req.Symbol),
		Side:       req.Side,
		Shares:     req.Shares,
		LimitPrice: req.LimitPrice,
		Currency:   req.Currency,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, OrderResponse{Order: order, BuyingPower: s.mirror.Account().BuyingPower})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.mirror.CancelLimitOrder(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, AccountResponse{Account: s.mirror.Account()})
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid trade body")
		return
	}
	if req.Symbol == "" || req.Shares <= 0 {
		writeError(w, http.StatusBadRequest, "symbol and positive shares required")
		return
	}

	res, err := s.mirror.ExecuteTrade(r.Context(), brokerage.TradeRequest{
		Symbol:   strings.ToUpper(req.Symbol),
		Side:     req.Side,
		Shares:   req.Shares,
		Currency: req.Currency,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, res)
}

// ---------------------------------------------------------------------------
// Market status
// ---------------------------------------------------------------------------

func (s *Server) handleMarketStatus(w http.ResponseWriter, r *http.Request) {
	exchange := r.URL.Query().Get("exchange")
	if exchange == "" {
		exchange = s.mirror.Account().DisplayMarket
	}
	symbol := strings.ToUpper(r.URL.Query().Get("symbol"))
	writeJSON(w, s.clock.Status(r.Context(), exchange, symbol))
}

// ---------------------------------------------------------------------------
// Watchlist
// ---------------------------------------------------------------------------

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, WatchlistResponse{Symbols: s.mirror.Watchlist().Symbols()})
}

func (s *Server) handleAddWatchlist(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol required")
		return
	}
	s.mirror.Watchlist().Add(symbol)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveWatchlist(w http.ResponseWriter, r *http.Request) {
	if !s.mirror.Watchlist().Remove(r.PathValue("symbol")) {
		writeError(w, http.StatusNotFound, "symbol not on watchlist")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Alerts
// ---------------------------------------------------------------------------

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, AlertsResponse{Alerts: s.mirror.Alerts()})
}

func (s *Server) handleSetAlert(w http.ResponseWriter, r *http.Request) {
	var req AlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid alert body")
		return
	}
	if req.Symbol == "" || req.TargetPrice <= 0 {
		writeError(w, http.StatusBadRequest, "symbol and positive targetPrice required")
		return
	}
	if req.Condition != domain.AlertAbove && req.Condition != domain.AlertBelow {
		writeError(w, http.StatusBadRequest, "condition must be above or below")
		return
	}

	alert := s.mirror.SetAlert(domain.Alert{
		Symbol:      strings.ToUpper(req.Symbol),
		Condition:   req.Condition,
		TargetPrice: req.TargetPrice,
	})
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, alert)
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	if !s.mirror.DeleteAlert(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "unknown alert")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// History
// ---------------------------------------------------------------------------

// historyRange parses ?days= (default 7) into a [start, now] window.
func historyRange(r *http.Request) (time.Time, time.Time) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			days = n
		}
	}
	now := time.Now().UTC()
	return now.AddDate(0, 0, -days), now
}

func (s *Server) handleHistoryValues(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "history not configured")
		return
	}
	start, end := historyRange(r)
	values, err := s.history.ReadValues(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading value history")
		return
	}
	if values == nil {
		values = []domain.ValuePoint{}
	}
	writeJSON(w, ValuesResponse{Values: values})
}

func (s *Server) handleHistoryTrades(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "history not configured")
		return
	}
	start, end := historyRange(r)
	trades, err := s.history.ReadTrades(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reading trade history")
		return
	}
	if trades == nil {
		trades = []domain.Trade{}
	}
	writeJSON(w, TradesResponse{Trades: trades})
}
