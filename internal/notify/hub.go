package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

const clientBuffer = 64

// client is a connected websocket listener.
type client struct {
	conn *websocket.Conn
	send chan Notification
}

// Hub streams notifications to websocket clients.
type Hub struct {
	mu             sync.RWMutex
	clients        map[*client]struct{}
	originPatterns []string
	logger         *zap.Logger
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithOriginPatterns allows cross-origin connections from pages whose host
// matches one of patterns (path.Match syntax, e.g. "localhost:5173").
// Same-origin connections are always accepted.
func WithOriginPatterns(patterns ...string) HubOption {
	return func(h *Hub) {
		h.originPatterns = append(h.originPatterns, patterns...)
	}
}

// NewHub creates a hub and subscribes it to svc.
func NewHub(svc *Service, logger *zap.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		clients: make(map[*client]struct{}),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	svc.Subscribe(h.Broadcast)
	return h
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("notification client connected")
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	h.logger.Debug("notification client disconnected")
}

// Broadcast queues n for every connected client, dropping it for clients
// whose buffer is full.
func (h *Hub) Broadcast(n Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- n:
		default:
			h.logger.Warn("notification client buffer full, dropping message",
				zap.String("notification_id", n.ID))
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request to a websocket and streams notifications
// until either side disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Warn("websocket accept failed",
			zap.String("origin", r.Header.Get("Origin")),
			zap.Error(err),
		)
		return
	}

	c := &client{conn: conn, send: make(chan Notification, clientBuffer)}
	h.register(c)
	defer h.unregister(c)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			return
		case n, ok := <-c.send:
			if !ok {
				return
			}
			writeCtx, writeCancel := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, n)
			writeCancel()
			if err != nil {
				h.logger.Debug("websocket write error", zap.Error(err))
				return
			}
		}
	}
}
