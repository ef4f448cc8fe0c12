package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// WSHub tracks the open WebSocket connections per user so a toggle on
// one device shows up on the user's other devices.
type WSHub struct {
	connections map[string]map[*websocket.Conn]bool
	mutex       sync.Mutex
}

func NewWSHub() *WSHub {
	return &WSHub{connections: make(map[string]map[*websocket.Conn]bool)}
}

// Broadcast sends an event to every connection the user has open.
// Connections that fail to write are dropped.
func (hub *WSHub) Broadcast(userID string, event string, payload any) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	conns, exists := hub.connections[userID]
	if !exists {
		return
	}

	message, err := json.Marshal(map[string]any{
		"event":   event,
		"payload": payload,
	})
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", event, err)
		return
	}

	for conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("Failed to send WebSocket message: %v", err)
			delete(conns, conn)
			conn.Close()
		}
	}
}

func (hub *WSHub) register(userID string, conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	if hub.connections[userID] == nil {
		hub.connections[userID] = make(map[*websocket.Conn]bool)
	}
	hub.connections[userID][conn] = true
}

func (hub *WSHub) unregister(userID string, conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.connections[userID], conn)
}

// checkOrigin allows any origin when ALLOWED_ORIGINS is empty,
// otherwise only origins on the comma-separated list.
func checkOrigin(r *http.Request) bool {
	allowed := os.Getenv("ALLOWED_ORIGINS")
	if allowed == "" {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, candidate := range strings.Split(allowed, ",") {
		if strings.TrimSpace(candidate) == origin {
			return true
		}
	}
	return false
}

// HandleWebSocket upgrades the connection and keeps it registered for
// the signed-in user until the client goes away.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if h.RateLimiter != nil && !h.RateLimiter.Allow(ip) {
		sendError(w, "Too many WebSocket connection attempts", http.StatusTooManyRequests)
		return
	}

	userID := h.userID(r)
	if userID == "" {
		sendError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.WSHub.register(userID, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.WSHub.unregister(userID, conn)
			conn.Close()
			return
		}
		// incoming messages from clients are ignored
	}
}
