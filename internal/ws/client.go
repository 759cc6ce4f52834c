package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096

	// sendBufferSize bounds the per-connection outbound queue. When it
	// overflows, events for that connection are dropped rather than letting
	// a stalled client block a room.
	sendBufferSize = 256
)

// Client is one live WebSocket connection with its user context. A user may
// hold any number of clients at once (tabs, devices).
type Client struct {
	ConnID      string
	UserID      uint
	DisplayName string
	Role        string
	Send        chan []byte

	hub    *Hub
	mu     sync.Mutex
	closed bool
	topics map[string]struct{}
}

func NewClient(connID string, userID uint, displayName, role string) *Client {
	return &Client{
		ConnID:      connID,
		UserID:      userID,
		DisplayName: displayName,
		Role:        role,
		Send:        make(chan []byte, sendBufferSize),
		topics:      make(map[string]struct{}),
	}
}

// Close unsubscribes the client from every topic and closes its send channel.
// Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	topics := make([]string, 0, len(c.topics))
	for t := range c.topics {
		topics = append(topics, t)
	}
	close(c.Send)
	c.mu.Unlock()

	if c.hub != nil {
		for _, t := range topics {
			c.hub.Unsubscribe(t, c)
		}
	}
}

// trySend queues payload without blocking. Returns false when the client is
// closed or its buffer is full. Holding the mutex across the send keeps Close
// from closing the channel underneath us.
func (c *Client) trySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

func (c *Client) trackTopic(topic string) {
	c.mu.Lock()
	c.topics[topic] = struct{}{}
	c.mu.Unlock()
}

func (c *Client) dropTopic(topic string) {
	c.mu.Lock()
	delete(c.topics, topic)
	c.mu.Unlock()
}

// SendDirect queues a payload for this one connection, bypassing topics. Used
// for synchronous error frames and the initial unread count.
func (c *Client) SendDirect(payload []byte) bool {
	return c.trySend(payload)
}

// WritePump copies queued events to the connection and keeps it alive with
// pings. Runs until the send channel closes or a write fails.
func (c *Client) WritePump(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadLoop consumes inbound frames until the peer goes away. Missing pongs
// trip the read deadline, so a silently dead connection is detected without a
// close handshake. onMessage may be nil for receive-only topics.
func (c *Client) ReadLoop(conn *websocket.Conn, onMessage func(raw []byte)) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if onMessage != nil {
			onMessage(raw)
		}
	}
}
