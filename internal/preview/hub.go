package preview

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/inkwell-dev/inkwell/internal/document"
	"github.com/inkwell-dev/inkwell/internal/logging"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer; documents carry inline
	// placeholders so this is generous
	maxMessageSize = 4 << 20

	// Messages queued per client before it is considered too slow
	sendBuffer = 16
)

// Message types
const (
	TypeDocument = "document"
	TypeHTML     = "html"
)

// Message is one JSON text frame on the preview socket.
type Message struct {
	Type    string          `json:"type"`
	Version uint64          `json:"version,omitempty"`
	Doc     json.RawMessage `json:"doc,omitempty"`
	HTML    string          `json:"html,omitempty"`
}

type client struct {
	conn *websocket.Conn
	addr string
	send chan []byte
}

// Hub relays published documents to viewers as HTML.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
	closed  bool
}

// NewHub creates an empty hub. Any origin may connect.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("WebSocket upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
		return
	}
	c := &client{conn: conn, addr: r.RemoteAddr, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	h.mu.Unlock()
	logging.LogConnection(c.addr, "preview_connected")

	go h.writePump(c)
	h.readPump(c)
}

// Clients returns the number of connected sockets.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	logging.LogConnection(c.addr, "preview_closed")
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Warn("Preview connection closed unexpectedly", zap.String("remote_addr", c.addr), zap.Error(err))
			}
			return
		}
		logging.LogWebSocketMessage(c.addr, "received", mt, data)
		if mt != websocket.TextMessage {
			continue
		}
		h.handle(c, data)
	}
}

func (h *Hub) handle(from *client, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		logging.Warn("Malformed preview message", zap.String("remote_addr", from.addr), zap.Error(err))
		return
	}
	if msg.Type != TypeDocument {
		logging.Debug("Ignoring preview message", zap.String("type", msg.Type))
		return
	}

	var snap document.Snapshot
	if err := json.Unmarshal(msg.Doc, &snap); err != nil {
		logging.Warn("Malformed preview document", zap.String("remote_addr", from.addr), zap.Error(err))
		return
	}
	html, err := Render(snap)
	if err != nil {
		logging.Error("Preview render failed", zap.Error(err))
		return
	}
	out, err := json.Marshal(Message{Type: TypeHTML, Version: snap.Version, HTML: html})
	if err != nil {
		logging.Error("Failed to marshal preview", zap.Error(err))
		return
	}
	h.broadcast(from, out)
}

// broadcast queues data for every client except from. Clients whose queue
// is full are dropped.
func (h *Hub) broadcast(from *client, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = data
	for c := range h.clients {
		if c == from {
			continue
		}
		select {
		case c.send <- data:
		default:
			logging.Warn("Dropping slow preview client", zap.String("remote_addr", c.addr))
			delete(h.clients, c)
			close(c.send)
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
			logging.LogWebSocketMessage(c.addr, "sent", websocket.TextMessage, data)
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
