package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tactictoe/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
	disconnectWait = 5 * time.Second
)

// Client is one WebSocket connection of an authenticated player.
type Client struct {
	ctx    context.Context
	id     Identity
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	hub    *Hub
	router *Router
}

// NewClient binds conn to the identity carried by ctx.
func NewClient(ctx context.Context, conn *websocket.Conn, hub *Hub, router *Router) *Client {
	id, _ := IdentityFrom(ctx)
	return &Client{
		ctx:    ctx,
		id:     id,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		hub:    hub,
		router: router,
	}
}

// Run serves the connection until it closes, then resolves the player's
// session if this was their last connection.
func (c *Client) Run() {
	c.hub.Register(c)
	go c.writePump()

	ready, _ := json.Marshal(Message{Type: MsgReady})
	c.trySend(ready)

	c.readPump()
	c.close()

	if c.hub.Unregister(c) {
		ctx, cancel := context.WithTimeout(c.ctx, disconnectWait)
		defer cancel()
		c.router.Disconnect(ctx)
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// trySend queues data unless the buffer is full or the client is gone.
func (c *Client) trySend(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}

func (c *Client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("ws read error", "user_id", c.id.UserID, "err", err)
			}
			return
		}
		if reply := c.router.Handle(c.ctx, msg); reply != nil {
			data, err := json.Marshal(reply)
			if err == nil {
				c.trySend(data)
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Warn("ws write error", "user_id", c.id.UserID, "err", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
