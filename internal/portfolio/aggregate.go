package portfolio

import (
	"sort"
	"time"

	"github.com/Open-Papertrade/papertrade/internal/domain"
	"github.com/Open-Papertrade/papertrade/internal/fx"
)

// Summarize computes the portfolio aggregates in the display currency.
// Every value is recomputed from scratch against the current quote
// snapshot; nothing accumulates across calls, so repeated refreshes
// cannot drift. A holding whose symbol has no quote this tick is valued
// at its average cost and contributes nothing to the day gain.
func Summarize(holdings []domain.Holding, quotes map[string]domain.Quote,
	account domain.Account, rates fx.Rates, asOf time.Time) domain.PortfolioSummary {

	display := account.DisplayCurrency
	if display == "" {
		display = "USD"
	}

	sum := domain.PortfolioSummary{
		Currency:    display,
		BuyingPower: fx.Convert(account.BuyingPower, "USD", display, rates),
		Holdings:    make([]domain.HoldingView, 0, len(holdings)),
		AsOf:        asOf,
	}

	for _, h := range holdings {
		price := h.AvgCost
		change := 0.0
		if q, ok := quotes[h.Symbol]; ok {
			price = q.Price
			change = q.Change
		}

		shares := float64(h.Shares)
		view := domain.HoldingView{
			Holding:  h,
			Price:    price,
			Value:    fx.Convert(shares*price, h.Currency, display, rates),
			Invested: fx.Convert(shares*h.AvgCost, h.Currency, display, rates),
			DayGain:  fx.Convert(change*shares, h.Currency, display, rates),
		}
		view.Returns = view.Value - view.Invested
		if view.Invested != 0 {
			view.ReturnsPercent = view.Returns / view.Invested * 100
		}

		sum.HoldingsValue += view.Value
		sum.TotalInvested += view.Invested
		sum.DayGain += view.DayGain
		sum.Holdings = append(sum.Holdings, view)
	}

	sort.Slice(sum.Holdings, func(i, j int) bool {
		return sum.Holdings[i].Symbol < sum.Holdings[j].Symbol
	})

	sum.TotalReturns = sum.HoldingsValue - sum.TotalInvested
	if sum.TotalInvested != 0 {
		sum.ReturnsPercent = sum.TotalReturns / sum.TotalInvested * 100
	}
	if base := sum.HoldingsValue - sum.DayGain; base != 0 {
		sum.DayGainPercent = sum.DayGain / base * 100
	}
	return sum
}
