package portfolio

import (
	"fmt"
	"time"

	"github.com/Open-Papertrade/papertrade/internal/domain"
)

// tradeDelta compares the account state captured before a trade with the
// values the execution result carries. An XP gain produces exactly one
// notification with the delta, naming the new level only when the level
// went up and the new rank only when the label changed. Zero or negative
// deltas produce nothing.
func tradeDelta(pre domain.Account, res domain.TradeResult, at time.Time) (domain.Notification, bool) {
	delta := res.XP - pre.XP
	if delta <= 0 {
		return domain.Notification{}, false
	}

	n := domain.Notification{
		Kind:    domain.NotificationXP,
		Title:   fmt.Sprintf("+%d XP", delta),
		XPDelta: delta,
		At:      at,
	}
	if res.Level > pre.Level {
		n.Level = res.Level
		n.Body = fmt.Sprintf("Level up! You reached level %d", res.Level)
	}
	if res.Rank != "" && res.Rank != pre.Rank {
		n.Rank = res.Rank
		if n.Body != "" {
			n.Body += " — "
		}
		n.Body += fmt.Sprintf("New rank: %s", res.Rank)
	}
	return n, true
}

// fillNotice describes a limit order fill for the notification queue.
func fillNotice(o domain.Order, price float64, at time.Time) domain.Notification {
	return domain.Notification{
		Kind:  domain.NotificationFill,
		Title: fmt.Sprintf("Order filled: %s %d %s", o.Side, o.Shares, o.Symbol),
		Body:  fmt.Sprintf("Filled at %.2f %s (limit %.2f)", price, o.Currency, o.LimitPrice),
		At:    at,
	}
}

// alertNotice describes a triggered price alert.
func alertNotice(a domain.Alert, price float64, at time.Time) domain.Notification {
	dir := "above"
	if a.Condition == domain.AlertBelow {
		dir = "below"
	}
	return domain.Notification{
		Kind:  domain.NotificationAlert,
		Title: fmt.Sprintf("%s is %s %.2f", a.Symbol, dir, a.TargetPrice),
		Body:  fmt.Sprintf("Last price %.2f", price),
		At:    at,
	}
}

// enqueue hands a notification to the queue without blocking the caller.
// The queue is drained by a single consumer so notifications present
// sequentially, never overlapping; if the queue is full the notification
// is dropped with a warning rather than stalling a refresh pass.
func (m *Mirror) enqueue(n domain.Notification) {
	select {
	case m.notifyCh <- n:
	default:
		m.log.Warn("notification queue full, dropping", "kind", n.Kind, "title", n.Title)
	}
}

// notifyLoop is the single notification consumer. It delivers queued
// notifications to subscribers one at a time, in arrival order. When the
// context ends it delivers whatever is still buffered before returning,
// so nothing enqueued before shutdown is lost.
func (m *Mirror) notifyLoop() {
	defer m.notifyWG.Done()
	for {
		select {
		case <-m.runCtx.Done():
			for {
				select {
				case n := <-m.notifyCh:
					m.deliver(n)
				default:
					return
				}
			}
		case n := <-m.notifyCh:
			m.deliver(n)
		}
	}
}

func (m *Mirror) deliver(n domain.Notification) {
	m.log.Info("notification", "kind", n.Kind, "title", n.Title)
	m.broadcast(Event{Type: EventNotification, Notification: &n})
}
