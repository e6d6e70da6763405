package feedback

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleWebSocket serves the interactive variant of the chat endpoint. Each
// client frame carries the same payload as a POST turn, and each server
// frame carries the turn result. The caller still owns the history and the
// form between frames.
func (h *handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		var req TurnRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		// The upgrade request's context carries the router's request
		// timeout, which a long-lived socket will outlast. Each turn gets
		// a fresh context; the engine applies its own per-turn deadline.
		resp, _ := h.runTurn(context.Background(), req)
		if err := conn.WriteJSON(resp); err != nil {
			h.log.Warn().Err(err).Msg("websocket write failed")
			return
		}
	}
}
