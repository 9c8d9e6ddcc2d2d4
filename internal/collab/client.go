package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

const (
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	readLimit    = 64 * 1024
	sendBuffer   = 256
)

// Client is one websocket viewer of a session. Outgoing messages queue on
// send; the hub closes send when the client leaves.
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	SessionID   string
	ClientID    string
	DisplayName string
}

func NewClient(hub *Hub, conn *websocket.Conn, sessionID, displayName string) *Client {
	if displayName == "" {
		displayName = "Viewer"
	}
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		SessionID:   sessionID,
		ClientID:    uuid.New().String(),
		DisplayName: displayName,
	}
}

// Serve pumps messages both ways until the connection drops or ctx ends,
// then unregisters the client.
func (c *Client) Serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go c.writeLoop(ctx)
	c.readLoop(ctx)
}

func (c *Client) readLoop(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()
	c.conn.SetReadLimit(readLimit)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				slog.Debug("viewer read failed", "error", err, "client", c.ClientID)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("undecodable viewer message", "error", err, "client", c.ClientID)
			continue
		}
		// Never trust the addressing a viewer sends.
		msg.ClientID, msg.SessionID = c.ClientID, c.SessionID
		c.hub.handleMessage(c, &msg)
	}
}

func (c *Client) writeLoop(ctx context.Context) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		var err error
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusGoingAway, "session closed")
				return
			}
			err = c.withTimeout(ctx, func(ctx context.Context) error {
				return c.conn.Write(ctx, websocket.MessageText, data)
			})
		case <-ping.C:
			err = c.withTimeout(ctx, c.conn.Ping)
		}
		if err != nil {
			slog.Debug("viewer write failed", "error", err, "client", c.ClientID)
			c.conn.CloseNow()
			return
		}
	}
}

func (c *Client) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return fn(ctx)
}

// Send queues msg without blocking. A viewer too slow to drain its queue
// misses messages rather than stalling the session.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("viewer queue full, dropping message", "client", c.ClientID, "type", msg.Type)
	}
}
