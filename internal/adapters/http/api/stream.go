package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okian/heartrobot/pkg/logger"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// StreamHandler pushes mission snapshots over a WebSocket. The first frame
// is the current snapshot and the connection closes normally when the
// mission ends.
type StreamHandler struct {
	deps     Dependencies
	logger   logger.Logger
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a stream handler. Origins are checked by the
// CORS layer, not the upgrader.
func NewStreamHandler(deps Dependencies, l logger.Logger) *StreamHandler {
	return &StreamHandler{
		deps:   deps,
		logger: l,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// HandleStream handles GET /missions/{id}/stream.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := resolvePlayer(ctx, h.deps.Identity(), r)
	if err != nil {
		writeError(w, err)
		return
	}
	id := r.PathValue("id")
	updates, cancel, err := h.deps.Subscribe(ctx, p, id)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(ctx, "websocket upgrade failed", logger.String("mission", id), logger.Error(err))
		return
	}
	defer conn.Close()

	// The reader only watches for the client going away and answers pongs.
	gone := make(chan struct{})
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	send := func(v any) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(v) == nil
	}
	var last uint64
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "mission ended"))
				return
			}
			if last != 0 && snap.Version <= last {
				continue
			}
			last = snap.Version
			if !send(snap) {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			return
		case <-ctx.Done():
			return
		}
	}
}
