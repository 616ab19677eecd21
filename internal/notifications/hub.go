package notifications

import (
	"errors"
	"log"
	"sync"
	"time"

	"driveline/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// maxTotalConns caps the whole feed so a burst of watchers cannot
	// exhaust file descriptors.
	maxTotalConns = 5000

	// maxConnsPerUser caps authenticated users; anonymous watchers
	// (UserID 0) only count against the total.
	maxConnsPerUser = 8
)

var (
	// ErrHubFull is returned when the connection cap is reached.
	ErrHubFull = errors.New("activity feed at capacity")

	// ErrTooManyConns is returned when one user holds too many connections.
	ErrTooManyConns = errors.New("too many connections for user")
)

// Hub fans marketplace activity events out to every connected client.
// There are no per-user channels; everyone sees the same feed.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	perUser map[uint]int
	closed  bool
}

// NewHub creates an empty activity feed hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		perUser: make(map[uint]int),
	}
}

// Name identifies the hub in logs and metrics.
func (h *Hub) Name() string { return "activity" }

// RegisterClient adds a client to the feed. It enforces connection caps
// and rejects registration after Shutdown.
func (h *Hub) RegisterClient(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return errors.New("hub is shut down")
	}
	if len(h.clients) >= maxTotalConns {
		return ErrHubFull
	}
	if c.UserID != 0 && h.perUser[c.UserID] >= maxConnsPerUser {
		return ErrTooManyConns
	}

	h.clients[c] = struct{}{}
	if c.UserID != 0 {
		h.perUser[c.UserID]++
	}
	observability.WebSocketConnections.Set(float64(len(h.clients)))
	return nil
}

// UnregisterClient removes a client and closes its send channel.
func (h *Hub) UnregisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	if c.UserID != 0 {
		if h.perUser[c.UserID] <= 1 {
			delete(h.perUser, c.UserID)
		} else {
			h.perUser[c.UserID]--
		}
	}
	close(c.Send)
	observability.WebSocketConnections.Set(float64(len(h.clients)))
}

// BroadcastAll delivers a message to every connected client. Slow clients
// are skipped rather than blocking the feed.
func (h *Hub) BroadcastAll(message []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.TrySend(message)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every connection with a going-away frame and stops
// accepting new registrations.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.clients = make(map[*Client]struct{})
	h.perUser = make(map[uint]int)
	h.mu.Unlock()

	deadline := time.Now().Add(writeWait)
	for _, c := range conns {
		if c.Conn != nil {
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			if err := c.Conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
				log.Printf("hub shutdown: close frame to user %d: %v", c.UserID, err)
			}
		}
		close(c.Send)
		if c.Conn != nil {
			_ = c.Conn.Close()
		}
	}
	observability.WebSocketConnections.Set(0)
}
