package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	// writeWait is time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// pongWait is time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// pingPeriod is the interval for sending pings (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound control messages
	maxMessageSize = 512

	// sendBuffer is the number of events queued per connection
	sendBuffer = 16
)

// MessageTypeResync asks the server to push the current document again
const MessageTypeResync = "document.resync"

// InboundMessage is a control message sent by a client
type InboundMessage struct {
	Type string `json:"type"`
}

// SnapshotFunc returns the event describing a user's current document,
// or false when no document is available yet
type SnapshotFunc func(userID string) (Event, bool)

// Client is one WebSocket connection of a user's session.
// Every event carries a whole document, so a slow client only needs the newest ones.
type Client struct {
	id        string
	userID    string
	conn      *websocket.Conn
	hub       *Hub
	snapshot  SnapshotFunc
	send      chan []byte
	closed    bool
	mu        sync.Mutex
	closeOnce sync.Once
}

// NewClient creates a client for a user's connection.
// snapshot answers resync requests and may be nil.
func NewClient(conn *websocket.Conn, userID string, hub *Hub, snapshot SnapshotFunc) *Client {
	return &Client{
		id:       uuid.NewString(),
		userID:   userID,
		conn:     conn,
		hub:      hub,
		snapshot: snapshot,
		send:     make(chan []byte, sendBuffer),
	}
}

// ID returns the client's unique identifier
func (c *Client) ID() string {
	return c.id
}

// UserID returns the ID of the user the connection belongs to
func (c *Client) UserID() string {
	return c.userID
}

// Send queues a message without blocking. When the queue is full the
// oldest queued message is dropped to make room.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}

	for {
		select {
		case c.send <- data:
			return nil
		default:
		}

		select {
		case <-c.send:
			log.Debug().Str("client_id", c.id).Str("user_id", c.userID).Msg("Dropped stale WebSocket event")
		default:
		}
	}
}

// Close closes the client connection.
// Safe to call multiple times from different goroutines.
func (c *Client) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()

		if c.conn != nil {
			closeErr = c.conn.Close()
		}
	})
	return closeErr
}

// IsClosed returns whether the client is closed
func (c *Client) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// ReadPump reads control messages until the connection fails.
// This should be run in a goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Str("user_id", c.userID).
					Msg("WebSocket unexpected close")
			}
			return
		}
		c.handle(data)
	}
}

func (c *Client) handle(data []byte) {
	var msg InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Debug().Err(err).Str("client_id", c.id).Msg("Ignoring malformed WebSocket message")
		return
	}

	switch msg.Type {
	case MessageTypeResync:
		c.resync()
	default:
		log.Debug().Str("client_id", c.id).Str("type", msg.Type).Msg("Ignoring unknown WebSocket message")
	}
}

// resync pushes the current document to this connection only
func (c *Client) resync() {
	if c.snapshot == nil {
		return
	}
	event, ok := c.snapshot(c.userID)
	if !ok {
		return
	}
	data, err := event.ToJSON()
	if err != nil {
		log.Error().Err(err).Str("user_id", c.userID).Msg("Failed to serialize resync event")
		return
	}
	c.Send(data)
}

// WritePump writes queued events and keepalive pings to the connection.
// This should be run in a goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn().
					Err(err).
					Str("client_id", c.id).
					Str("user_id", c.userID).
					Msg("WebSocket write error")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
