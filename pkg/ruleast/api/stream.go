package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/randalmurphal/ruleast/pkg/ruleast"
	"github.com/randalmurphal/ruleast/pkg/ruleast/observability"
)

const (
	streamPongWait   = 60 * time.Second
	streamPingPeriod = 30 * time.Second
	streamWriteWait  = 10 * time.Second
)

type streamReply struct {
	Result *bool  `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// streamRule evaluates a stored rule against every record a WebSocket
// client sends. Each text message is one JSON object; each reply is
// {"result": bool} or {"error": "..."}. The rule is loaded once, before
// the upgrade, so an unknown ID is reported as a plain 404.
func (h *Handler) streamRule(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	tree, err := h.svc.loadTree(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	logger := observability.EnrichLogger(h.logger, id, "stream")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		if logger != nil {
			logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		}
		return
	}
	defer conn.Close()

	conn.SetReadLimit(h.maxBodyBytes)
	conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go keepAlive(conn, done)

	ctx := r.Context()
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && logger != nil {
				logger.Warn("websocket read failed", slog.String("error", err.Error()))
			}
			return
		}

		reply := h.evaluateMessage(ctx, id, tree, msg)
		conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

func (h *Handler) evaluateMessage(ctx context.Context, id string, tree *ruleast.Node, msg []byte) streamReply {
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()

	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		return streamReply{Error: err.Error()}
	}
	if record == nil {
		return streamReply{Error: MsgNoData}
	}

	result, err := h.svc.evaluate(ctx, "stream", id, tree, record)
	if err != nil {
		return streamReply{Error: err.Error()}
	}
	return streamReply{Result: &result}
}

// keepAlive pings the client until done is closed. WriteControl is safe to
// call concurrently with the reply writer.
func keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
