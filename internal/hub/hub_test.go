package hub

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// dialTestClient spins up a server that registers every connection with h
// and returns a connected client-side socket.
func dialTestClient(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		h.Register(conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("unmarshal %q: %v", raw, err)
	}
	return env
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", h.ClientCount(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestBroadcastReachesEveryClient(t *testing.T) {
	h := New()
	a := dialTestClient(t, h)
	b := dialTestClient(t, h)
	waitForClients(t, h, 2)

	h.Broadcast("cardScanned", map[string]any{"uid": "04A1B2C3"})

	for _, conn := range []*websocket.Conn{a, b} {
		env := readEnvelope(t, conn)
		if env.Event != "cardScanned" {
			t.Fatalf("event = %q", env.Event)
		}
		data := env.Data.(map[string]any)
		if data["uid"] != "04A1B2C3" {
			t.Fatalf("data = %v", data)
		}
	}
}

func TestSendTargetsOneClient(t *testing.T) {
	h := New()
	conn := dialTestClient(t, h)
	waitForClients(t, h, 1)

	h.mu.RLock()
	var client *Client
	for _, c := range h.clients {
		client = c
	}
	h.mu.RUnlock()

	client.Send("connected", map[string]any{"client_id": client.ID})
	env := readEnvelope(t, conn)
	if env.Event != "connected" {
		t.Fatalf("event = %q", env.Event)
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	h := New()
	dialTestClient(t, h)
	waitForClients(t, h, 1)

	h.mu.RLock()
	var client *Client
	for _, c := range h.clients {
		client = c
	}
	h.mu.RUnlock()

	h.Unregister(client)
	h.Unregister(client)
	if h.ClientCount() != 0 {
		t.Fatalf("client count = %d after unregister", h.ClientCount())
	}

	// Broadcasting with no clients must not panic or block.
	h.Broadcast("cardScanned", map[string]any{"uid": "X"})
}
