package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/inkwell-dev/inkwell/internal/logging"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("preview publisher closed")

// Publisher sends documents to a Hub. Only the latest document matters, so
// Publish never blocks: a document published while an earlier one is still
// being written replaces any queued one.
type Publisher struct {
	url    string
	dialer *websocket.Dialer

	mu      sync.Mutex
	conn    *websocket.Conn
	pending []byte
	closed  bool

	notify chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup
}

// Dial connects to the hub at url (ws:// or wss://).
func Dial(ctx context.Context, url string) (*Publisher, error) {
	p := &Publisher{
		url:    url,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	if err := p.connect(ctx); err != nil {
		return nil, err
	}
	p.wg.Add(1)
	go p.loop()
	return p, nil
}

func (p *Publisher) connect(ctx context.Context) error {
	conn, _, err := p.dialer.DialContext(ctx, p.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to preview hub: %w", err)
	}
	p.mu.Lock()
	p.conn = conn
	p.mu.Unlock()

	// Control frames are only processed while reading.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	logging.LogConnection(p.url, "preview_publisher_connected")
	return nil
}

// Publish queues doc, the JSON form of a document snapshot.
func (p *Publisher) Publish(doc []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.pending = doc
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
	return nil
}

func (p *Publisher) loop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case <-p.notify:
		}

		p.mu.Lock()
		doc := p.pending
		p.pending = nil
		conn := p.conn
		p.mu.Unlock()
		if doc == nil {
			continue
		}

		if conn == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := p.connect(ctx)
			cancel()
			if err != nil {
				logging.Warn("Preview reconnect failed", zap.Error(err))
				continue
			}
			p.mu.Lock()
			conn = p.conn
			p.mu.Unlock()
		}

		data, err := json.Marshal(Message{Type: TypeDocument, Doc: doc})
		if err != nil {
			logging.Error("Failed to marshal preview document", zap.Error(err))
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logging.Warn("Preview publish failed; will reconnect", zap.Error(err))
			_ = conn.Close()
			p.mu.Lock()
			p.conn = nil
			p.mu.Unlock()
			continue
		}
		logging.LogWebSocketMessage(p.url, "sent", websocket.TextMessage, data)
	}
}

// Close stops the publisher and closes the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.done)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	_ = p.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return p.conn.Close()
}
