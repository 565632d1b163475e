package server

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/pagelens/pagelens/internal/logging"
)

// ProgressEvent is one websocket frame of scan progress.
type ProgressEvent struct {
	Type    string `json:"type"`
	URL     string `json:"url,omitempty"`
	Stage   string `json:"stage,omitempty"`
	Percent int    `json:"percent,omitempty"`
	Error   string `json:"error,omitempty"`
}

// hub fans scan progress out to every connected websocket client. Slow or
// dead clients are dropped rather than allowed to stall a scan.
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	logger  logging.Logger
}

func newHub(logger logging.Logger) *hub {
	return &hub{
		clients: map[*websocket.Conn]struct{}{},
		logger:  logger,
	}
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

func (h *hub) broadcast(event ProgressEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(event); err != nil {
			h.logger.Debug("dropping websocket client",
				logging.Field{Key: "error", Value: err.Error()})
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
