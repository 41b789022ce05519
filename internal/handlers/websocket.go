package handlers

import (
	"net/http"

	"costume-vote-backend/internal/services"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboards connect from arbitrary origins
	},
}

// WebSocketHandler upgrades live feed connections.
type WebSocketHandler struct {
	hub *services.LiveHub
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(hub *services.LiveHub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleWebSocket handles GET /ws. The feed is broadcast-only: client
// frames are read and discarded until the connection closes.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	clientID := uuid.New().String()
	h.hub.Register(clientID, conn)

	go func() {
		defer h.hub.Unregister(clientID)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
