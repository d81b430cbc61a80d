// Package websocket pushes notifications to the live connections of a recipient.
// A recipient may hold several connections; each gets every message. A
// connection that cannot keep up is closed instead of blocking the publisher.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"robodelivery/internal/core/domain/model/notification"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

type client struct {
	recipientID string
	conn        *websocket.Conn
	send        chan []byte
	once        sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub keeps the live websocket connections per recipient and fans envelopes
// out to them. A recipient without a connection is not an error.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  logger.With("component", "websocket_hub"),
		clients: make(map[string]map[*client]struct{}),
	}
}

// Publish queues message on every open connection of recipientID. Having no
// connection is not an error: the stored record is the fallback.
func (h *Hub) Publish(_ context.Context, recipientID string, message notification.Envelope) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.mu.RLock()
	var slow []*client
	for c := range h.clients[recipientID] {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("websocket client too slow, disconnecting", "recipient_id", recipientID)
		h.unregister(c)
	}
	return nil
}

// Connections reports how many connections recipientID holds.
func (h *Hub) Connections(recipientID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[recipientID])
}

// Serve upgrades the request and streams notifications for recipientID until
// the peer goes away. The caller has already authenticated the recipient.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, recipientID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{recipientID: recipientID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)

	go h.writePump(c)
	h.readPump(c)
	return nil
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.recipientID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[c.recipientID] = set
	}
	set[c] = struct{}{}
	h.logger.Debug("websocket client connected", "recipient_id", c.recipientID, "connections", len(set))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.clients[c.recipientID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.recipientID)
	}
	c.close()
}

// readPump discards inbound frames; it only exists to process control frames
// and notice a closed peer.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed", "recipient_id", c.recipientID, "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for recipientID, set := range h.clients {
		for c := range set {
			c.close()
		}
		delete(h.clients, recipientID)
	}
}
