package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleTradeStream upgrades to a WebSocket and forwards the trades
// the engine's registered observer broadcasts, one JSON line per trade.
// Trades published while this subscriber's 32-trade buffer is full are
// skipped (see tradeFeed.publish).
func (s *Server) handleTradeStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	trades := s.feed.subscribe(r.Context(), 32)

	for trade := range trades {
		out := struct {
			Type string      `json:"type"`
			Data publicTrade `json:"data"`
		}{Type: "trade", Data: publicTradeOf(trade)}
		if err := conn.WriteJSON(out); err != nil {
			return
		}
	}
}
