// Package hub implements the duplex, framed-JSON connection endpoints
// that Agents, Clients, and Services attach to.
package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gridctl/agenthub/pkg/wire"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // 1MB, generous for tool payloads
	sendBufferSize = 64
)

// Class identifies which of the three endpoints a connection belongs to.
type Class string

const (
	ClassAgent   Class = "agent"
	ClassClient  Class = "client"
	ClassService Class = "service"
)

// Connection is a single accepted transport session. It owns a
// websocket connection and runs a read pump (caller's goroutine) and a
// write pump (background goroutine), matching one writer per socket.
type Connection struct {
	ID    string
	Class Class

	conn   *websocket.Conn
	send   chan wire.Message
	logger *slog.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

func newConnection(id string, class Class, conn *websocket.Conn, logger *slog.Logger) *Connection {
	return &Connection{
		ID:     id,
		Class:  class,
		conn:   conn,
		send:   make(chan wire.Message, sendBufferSize),
		logger: logger,
		closed: make(chan struct{}),
	}
}

// Send enqueues a message for delivery. Non-blocking: if the send
// buffer is full the connection is considered stalled and dropped,
// matching the no-global-backpressure rule — a slow connection must
// never stall the router.
func (c *Connection) Send(msg wire.Message) bool {
	select {
	case c.send <- msg:
		return true
	case <-c.closed:
		return false
	default:
		c.logger.Warn("connection send buffer full, dropping connection", "connection_id", c.ID)
		c.Close()
		return false
	}
}

// Close terminates the connection. Safe to call multiple times.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
}

// readPump reads frames off the socket and hands each decoded Message
// to onMessage. Runs on the caller's goroutine; returns when the
// connection closes. onClose is always invoked exactly once on return.
func (c *Connection) readPump(onMessage func(*Connection, wire.Message), onClose func(*Connection)) {
	defer func() {
		c.Close()
		onClose(c)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("connection read error", "connection_id", c.ID, "error", err)
			}
			return
		}

		var msg wire.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.Send(wire.NewErrorMessage(newFrameErrorID(), "", wire.NewError(wire.ErrValidation, "malformed frame: %v", err)))
			continue
		}
		if msg.Type == "" {
			c.Send(wire.NewErrorMessage(newFrameErrorID(), msg.ID, wire.NewError(wire.ErrValidation, "message missing required field: type")))
			continue
		}
		onMessage(c, msg)
	}
}

// writePump drains the send channel to the socket and keeps the
// connection alive with periodic pings. Runs in its own goroutine and
// is the connection's single writer.
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug("connection write error", "connection_id", c.ID, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}

// newFrameErrorID generates an id for error replies to frames that
// failed to parse far enough to carry their own id.
func newFrameErrorID() string {
	return "frame-error-" + time.Now().UTC().Format(time.RFC3339Nano)
}
