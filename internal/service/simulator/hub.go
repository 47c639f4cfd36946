package simulator

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oshokin/rig-panel/internal/logger"
)

const (
	// clientBuffer is how many broadcasts a slow client may lag behind.
	clientBuffer = 16
	// writeTimeout bounds a single websocket write.
	writeTimeout = 10 * time.Second
)

// client is one connected status listener.
type client struct {
	// conn is the websocket.
	conn *websocket.Conn
	// send queues outgoing text frames.
	send chan string
}

// Hub fans status messages out to every connected websocket.
type Hub struct {
	// upgrader accepts panel connections from any origin.
	upgrader websocket.Upgrader
	// mu protects clients.
	mu sync.Mutex
	// clients is the set of connected listeners.
	clients map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		clients: make(map[*client]struct{}),
	}
}

// Broadcast queues message for every client; clients that fall behind miss it.
func (h *Hub) Broadcast(ctx context.Context, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- message:
		default:
			logger.DebugKV(ctx, "Client send buffer full, dropping", "remote", c.conn.RemoteAddr().String())
		}
	}
}

// Clients returns the number of connected listeners.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// Serve upgrades the request and pumps broadcasts until the client leaves.
func (h *Hub) Serve(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnKV(ctx, "Websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan string, clientBuffer),
	}

	ctx = logger.WithKV(ctx, "remote", conn.RemoteAddr().String())

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	logger.Info(ctx, "Status client connected")

	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()

		_ = conn.Close()

		logger.Info(ctx, "Status client disconnected")
	}()

	// Panels never write; reading only detects the close.
	gone := make(chan struct{})

	go func() {
		defer close(gone)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(time.Second),
			)

			return
		case <-gone:
			return
		case message := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))

			if err := conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
				logger.DebugKV(ctx, "Websocket write failed", "error", err)
				return
			}
		}
	}
}
