package papertrade

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// streamMaxBackoff caps the reconnect delay.
const streamMaxBackoff = 30 * time.Second

// EventHandler receives decoded stream events. Handlers run on the
// stream goroutine; slow handlers delay subsequent events.
type EventHandler func(Event)

// Stream dials /api/stream and dispatches decoded events to handler
// until ctx is cancelled, reconnecting with exponential backoff after
// any connection failure. The server resends a snapshot on every
// reconnect, so handlers always converge on current state. Returns
// ctx.Err once cancelled.
func (c *Client) Stream(ctx context.Context, handler EventHandler) error {
	url := wsURL(c.baseURL) + "/api/stream"
	backoff := time.Second

	for {
		err := c.streamOnce(ctx, url, handler)
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > streamMaxBackoff {
			backoff = streamMaxBackoff
		}
	}
}

// streamOnce runs one connection until it breaks or ctx is cancelled.
func (c *Client) streamOnce(ctx context.Context, url string, handler EventHandler) error {
	// The client's timeout-bearing HTTP client is deliberately not reused
	// here: it would bound the lifetime of the whole connection.
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.CloseNow()

	for {
		var ev Event
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			return err
		}
		handler(ev)
	}
}

func wsURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}
