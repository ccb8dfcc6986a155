package httpapi

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Open-Papertrade/papertrade/internal/portfolio"
)

// handleStream upgrades to a WebSocket and pushes mirror events as JSON.
// The first message is always a snapshot of the current portfolio, so a
// client can render immediately before the next broadcast arrives.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn("websocket accept failed", "err", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	summary := s.mirror.Portfolio()
	snapshot := portfolio.Event{Type: portfolio.EventSnapshot, Summary: &summary}
	if err := wsjson.Write(ctx, conn, snapshot); err != nil {
		return
	}

	id, events := s.mirror.Subscribe(32)
	defer s.mirror.Unsubscribe(id)

	// Reads are only needed to notice the client hanging up.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case <-readDone:
			return
		case ev := <-events:
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				s.log.Debug("stream write failed", "err", err)
				return
			}
		}
	}
}
