package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"snapclash/logger"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 54 * time.Second
	sendBuffer   = 256
)

// Conn wraps one websocket connection. The id doubles as the player id for
// every room the connection joins.
type Conn struct {
	ID     string
	sock   *websocket.Conn
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func newConn(id string, sock *websocket.Conn) *Conn {
	ctx, cancel := context.WithCancel(context.Background())
	return &Conn{
		ID:     id,
		sock:   sock,
		send:   make(chan []byte, sendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// close tears the connection down. The send channel is deliberately left
// open: a broadcast racing the teardown may still enqueue, and a send on a
// closed channel would panic. The write pump exits through the cancelled
// context instead and unread frames are garbage collected with the conn.
func (c *Conn) close() {
	c.once.Do(func() {
		c.cancel()
		if c.sock != nil {
			c.sock.Close()
		}
	})
}

// enqueue hands a frame to the write pump without blocking. A full buffer
// means the client is not draining; the frame is dropped (broadcasts are
// best-effort).
func (c *Conn) enqueue(msg []byte) {
	select {
	case c.send <- msg:
	case <-c.ctx.Done():
	default:
		logger.Warn("conn %s send buffer full, dropping frame", c.ID)
	}
}

// writePump drains the send channel onto the socket and keeps the connection
// alive with pings. Runs on the connection's fiber handler goroutine.
func (c *Conn) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.ctx.Done():
			return

		case msg := <-c.send:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Error("write error for conn %s: %v", c.ID, err)
				return
			}

		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Error("ping error for conn %s: %v", c.ID, err)
				return
			}
		}
	}
}
