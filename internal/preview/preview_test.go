package preview

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/inkwell-dev/inkwell/internal/document"
)

func TestRender(t *testing.T) {
	doc := document.New(
		document.Heading(1, "Title"),
		document.Paragraph("Some text"),
	)
	html, err := Render(doc.Snapshot())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(html, "<h1>Title</h1>") {
		t.Errorf("Render() = %q, want a level 1 heading", html)
	}
	if !strings.Contains(html, "<p>Some text</p>") {
		t.Errorf("Render() = %q, want a paragraph", html)
	}
}

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialViewer(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readHTML(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatal(err)
	}
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg.Type != TypeHTML {
		t.Fatalf("message type = %q, want %q", msg.Type, TypeHTML)
	}
	return msg
}

func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for hub.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Clients() = %d, want %d", hub.Clients(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestPublisherToViewer(t *testing.T) {
	hub, url := startHub(t)
	viewer := dialViewer(t, url)

	pub, err := Dial(context.Background(), url)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer pub.Close()
	waitClients(t, hub, 2)

	doc := document.New(document.Heading(2, "Live"))
	data, err := doc.Snapshot().JSON()
	if err != nil {
		t.Fatal(err)
	}
	if err := pub.Publish(data); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	msg := readHTML(t, viewer)
	if !strings.Contains(msg.HTML, "<h2>Live</h2>") {
		t.Errorf("HTML = %q, want the heading", msg.HTML)
	}
}

func TestLateViewerGetsLastRendering(t *testing.T) {
	hub, url := startHub(t)
	publisher := dialViewer(t, url)
	waitClients(t, hub, 1)

	doc := document.New(document.Paragraph("first"))
	snap, _ := doc.Snapshot().JSON()
	frame, _ := json.Marshal(Message{Type: TypeDocument, Doc: snap})
	if err := publisher.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		hub.mu.Lock()
		ready := hub.last != nil
		hub.mu.Unlock()
		if ready {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("hub never rendered the document")
		}
		time.Sleep(10 * time.Millisecond)
	}

	late := dialViewer(t, url)
	msg := readHTML(t, late)
	if !strings.Contains(msg.HTML, "first") {
		t.Errorf("HTML = %q, want the last document", msg.HTML)
	}
}

func TestMalformedMessagesIgnored(t *testing.T) {
	hub, url := startHub(t)
	conn := dialViewer(t, url)
	waitClients(t, hub, 1)

	for _, frame := range []string{"not json", `{"type":"other"}`, `{"type":"document","doc":"x"}`} {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(50 * time.Millisecond)
	if hub.Clients() != 1 {
		t.Errorf("Clients() = %d, want connection kept open", hub.Clients())
	}
}

func TestPublishAfterClose(t *testing.T) {
	_, url := startHub(t)
	pub, err := Dial(context.Background(), url)
	if err != nil {
		t.Fatal(err)
	}
	if err := pub.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := pub.Publish([]byte("{}")); err != ErrClosed {
		t.Errorf("Publish() error = %v, want ErrClosed", err)
	}
}
