package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/rrcmon/internal/logging"
	"github.com/muurk/rrcmon/internal/monitor"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Clients only send control frames
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// client is one websocket subscriber. mu serialises writes.
type client struct {
	conn   *websocket.Conn
	remote string
	mu     sync.Mutex
}

func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}

// Hub broadcasts snapshots to websocket clients and remembers the latest
// one. It is a monitor.Sink.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	latest  []byte
	closed  bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Name implements monitor.Sink.
func (h *Hub) Name() string { return "feed" }

// Publish sends snap to every client. A client whose write fails is dropped.
func (h *Hub) Publish(ctx context.Context, snap monitor.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	h.mu.Lock()
	h.latest = data
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if ctx.Err() != nil {
			return nil
		}
		if err := c.write(websocket.TextMessage, data); err != nil {
			logging.Debug("Dropping feed client", zap.String("remote_addr", c.remote), zap.Error(err))
			h.remove(c)
			continue
		}
		logging.LogWebSocketMessage(c.remote, "out", websocket.TextMessage, data)
	}
	return nil
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Latest returns the last published snapshot as JSON, or nil.
func (h *Hub) Latest() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down")
	for _, c := range clients {
		_ = c.write(websocket.CloseMessage, msg)
		c.conn.Close()
		logging.LogConnection(c.remote, "closed")
	}
}

// Mount registers GET /ws and GET /api/snapshot on r.
func (h *Hub) Mount(r gin.IRoutes) {
	r.GET("/ws", h.handleWebSocket)
	r.GET("/api/snapshot", h.handleSnapshot)
}

func (h *Hub) handleSnapshot(c *gin.Context) {
	data := h.Latest()
	if data == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no snapshot yet"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (h *Hub) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	cl := &client{conn: conn, remote: c.Request.RemoteAddr}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[cl] = struct{}{}
	total := len(h.clients)
	latest := h.latest
	h.mu.Unlock()

	logging.LogConnection(cl.remote, "subscribed")
	logging.Debug("Feed clients", zap.Int("total", total))

	if latest != nil {
		if err := cl.write(websocket.TextMessage, latest); err != nil {
			h.remove(cl)
			return
		}
	}

	stop := make(chan struct{})
	defer close(stop)
	go h.ping(cl, stop)

	// Read until the peer goes away; only control frames are expected.
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(cl)
}

func (h *Hub) ping(c *client, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		c.conn.Close()
		logging.LogConnection(c.remote, "unsubscribed")
	}
}
