package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nhooyr.io/websocket"

	"raritystake/core/events"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsBuffer       = 128
	wsMaxBacklog   = 100
)

type streamedEvent struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	if s == nil || s.feed == nil {
		http.Error(w, "event stream unavailable", http.StatusServiceUnavailable)
		return
	}
	filter := strings.TrimSpace(r.URL.Query().Get("type"))
	backlog := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("backlog")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > wsMaxBacklog {
			http.Error(w, "backlog must be within 0..100", http.StatusBadRequest)
			return
		}
		backlog = n
	}
	// the stream outlives the server write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "stream closed")
	ctx := conn.CloseRead(r.Context())
	if err := s.streamEvents(ctx, conn, filter, backlog); err != nil {
		if status := websocket.CloseStatus(err); status == -1 {
			_ = conn.Close(websocket.StatusInternalError, "stream error")
		}
	}
}

// streamEvents replays up to backlog journaled events, oldest first, then
// forwards live ones. An event committed while the backlog is read may be
// delivered twice.
func (s *Server) streamEvents(ctx context.Context, conn *websocket.Conn, filter string, backlog int) error {
	updates, cancel := s.feed.Subscribe(wsBuffer)
	defer cancel()
	if backlog > 0 && s.journal != nil {
		entries, err := s.journal.List(ctx, filter, backlog)
		if err != nil {
			return err
		}
		for i := len(entries) - 1; i >= 0; i-- {
			attrs, err := entries[i].Decoded()
			if err != nil {
				return err
			}
			if err := writeStreamPayload(ctx, conn, streamedEvent{Type: entries[i].Type, Attributes: attrs}); err != nil {
				return err
			}
		}
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-updates:
			if !ok {
				return nil
			}
			if filter != "" && evt.EventType() != filter {
				continue
			}
			if err := writeStreamedEvent(ctx, conn, evt); err != nil {
				return err
			}
		}
	}
}

func writeStreamedEvent(ctx context.Context, conn *websocket.Conn, evt events.Event) error {
	payload := streamedEvent{Type: evt.EventType()}
	if raw := evt.Event(); raw != nil {
		payload.Attributes = raw.Attributes
	}
	return writeStreamPayload(ctx, conn, payload)
}

func writeStreamPayload(ctx context.Context, conn *websocket.Conn, payload streamedEvent) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
