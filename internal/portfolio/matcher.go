package portfolio

import "github.com/Open-Papertrade/papertrade/internal/domain"

// fill pairs a matched order with the market price it should execute at.
// The observed price is used for execution, not the limit price, so a
// buy that triggers below its limit fills at the better price.
type fill struct {
	order domain.Order
	price float64
}

// shouldFill reports whether the resting order triggers against q. A
// buy limit fills when the market trades at or below the limit, a sell
// limit when it trades at or above.
func shouldFill(o domain.Order, q domain.Quote) bool {
	if o.Status != domain.OrderStatusPending || o.Kind != domain.OrderKindLimit {
		return false
	}
	switch o.Side {
	case domain.OrderSideBuy:
		return q.Price <= o.LimitPrice
	case domain.OrderSideSell:
		return q.Price >= o.LimitPrice
	}
	return false
}

// matchOrders evaluates the full pending set against quotes once.
// Orders without a quote this tick are skipped, not expired; they stay
// pending for the next pass. The caller removes matched orders from the
// pending set before confirming fills, so an order can match at most
// once.
func matchOrders(pending []domain.Order, quotes map[string]domain.Quote) []fill {
	var fills []fill
	for _, o := range pending {
		q, ok := quotes[o.Symbol]
		if !ok {
			continue
		}
		if shouldFill(o, q) {
			fills = append(fills, fill{order: o, price: q.Price})
		}
	}
	return fills
}
