// Package hub fans realtime events out to every connected display client.
// Each websocket connection registers a Client with a buffered send
// channel; a slow client drops messages rather than stalling the pipeline.
package hub

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 16
)

// Envelope is the wire format for every server→client event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Client is one connected display terminal.
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

// Hub tracks connected clients and broadcasts events to all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func New() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

// Register wraps conn in a Client, starts its writer pump and adds it to
// the broadcast set.
func (h *Hub) Register(conn *websocket.Conn) *Client {
	c := &Client{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()
	go c.writePump()
	return c
}

// Unregister removes the client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	c.once.Do(func() { close(c.send) })
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast delivers an event to every connected client. Clients whose
// buffers are full miss the message.
func (h *Hub) Broadcast(event string, data any) {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		log.Printf("hub: marshal %s: %v", event, err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- payload:
		default:
			log.Printf("hub: drop %s for client %s", event, c.ID)
		}
	}
}

// Send delivers an event to this client only.
func (c *Client) Send(event string, data any) {
	payload, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		log.Printf("hub: marshal %s: %v", event, err)
		return
	}
	select {
	case c.send <- payload:
	default:
		log.Printf("hub: drop %s for client %s", event, c.ID)
	}
}

func (c *Client) writePump() {
	defer func() { _ = c.conn.Close() }()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}
