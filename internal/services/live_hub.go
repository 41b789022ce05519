package services

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event types pushed to the live feed.
const (
	EventScoreUpdate  = "score_update"
	EventPhaseChange  = "phase_change"
	EventEntryCreated = "entry_created"
	EventEntryDeleted = "entry_deleted"
	EventFinalists    = "finalists"
	EventReset        = "reset"
)

// Event is a message on the live feed.
type Event struct {
	Type      string      `json:"type"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// LiveHub fans events out to every connected dashboard client
// (leaderboards, the projector wall, the admin console). It is a
// presentation convenience only: nothing depends on a broadcast arriving.
type LiveHub struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn
}

// NewLiveHub creates a new live hub.
func NewLiveHub() *LiveHub {
	return &LiveHub{
		connections: make(map[string]*websocket.Conn),
	}
}

// Register adds a client connection under the given id, replacing any
// previous connection with the same id.
func (h *LiveHub) Register(clientID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.connections[clientID]; ok {
		existing.Close()
	}
	h.connections[clientID] = conn

	log.Debug().Str("client_id", clientID).Msg("Live feed client connected")
}

// Unregister removes and closes a client connection.
func (h *LiveHub) Unregister(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, ok := h.connections[clientID]; ok {
		conn.Close()
		delete(h.connections, clientID)
		log.Debug().Str("client_id", clientID).Msg("Live feed client disconnected")
	}
}

// Broadcast sends an event to every connected client. Clients whose send
// fails are dropped; delivery is best-effort by design.
func (h *LiveHub) Broadcast(eventType string, data interface{}) {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for clientID, conn := range h.connections {
		if err := conn.WriteJSON(event); err != nil {
			log.Debug().Err(err).Str("client_id", clientID).Msg("Dropping live feed client")
			conn.Close()
			delete(h.connections, clientID)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *LiveHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}
