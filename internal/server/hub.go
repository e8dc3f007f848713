package server

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeDeadline = 10 * time.Second

// notification is the frame pushed to session subscribers.
type notification struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// Hub fans responses out to the WebSocket connections subscribed to each
// session. It implements assistant.Notifier.
type Hub struct {
	mu     sync.Mutex
	conns  map[string][]*websocket.Conn
	logger *zap.Logger
}

// NewHub builds an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		conns:  make(map[string][]*websocket.Conn),
		logger: logger.Named("hub"),
	}
}

// Register subscribes a connection to a session's notifications.
func (h *Hub) Register(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[sessionID] = append(h.conns[sessionID], conn)
}

// Unregister removes a connection. The caller closes it.
func (h *Hub) Unregister(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.conns[sessionID]
	for i, c := range conns {
		if c == conn {
			h.conns[sessionID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.conns[sessionID]) == 0 {
		delete(h.conns, sessionID)
	}
}

// Notify pushes a response to every subscriber of the session. Dead
// connections are dropped; delivery is best effort.
func (h *Hub) Notify(_ context.Context, sessionID, message string) {
	h.mu.Lock()
	conns := append([]*websocket.Conn(nil), h.conns[sessionID]...)
	h.mu.Unlock()

	frame := notification{SessionID: sessionID, Message: message}
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := conn.WriteJSON(frame); err != nil {
			h.logger.Debug("dropping dead subscriber",
				zap.String("session_id", sessionID),
				zap.Error(err))
			conn.Close()
			h.Unregister(sessionID, conn)
		}
	}
}
