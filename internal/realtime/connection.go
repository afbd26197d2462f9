package realtime

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/skillforge-io/backend/internal/logger"
)

// MessageHandler is the callback executed for each inbound message.
type MessageHandler func(ctx context.Context, conn *Connection, msg []byte)

// OnCloseHandler runs once when the connection fully terminates.
type OnCloseHandler func(conn *Connection, err error)

// Connection wraps a single authenticated WebSocket connection. All sends
// go through a buffered channel so fan-out never blocks on a slow client.
type Connection struct {
	id       uuid.UUID
	identity Identity
	ws       *websocket.Conn
	send     chan []byte

	readTimeout time.Duration
	onMessage   MessageHandler
	onClose     OnCloseHandler

	done      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewConnection creates a connection with a generated id. The identity must
// already have passed the gate.
func NewConnection(parentCtx context.Context, ws *websocket.Conn, identity Identity, readTimeout time.Duration) *Connection {
	connCtx, cancel := context.WithCancel(parentCtx)
	return &Connection{
		id:          uuid.New(),
		identity:    identity,
		ws:          ws,
		send:        make(chan []byte, 64),
		readTimeout: readTimeout,
		done:        make(chan struct{}),
		ctx:         connCtx,
		cancel:      cancel,
	}
}

// ID returns the generated connection id.
func (c *Connection) ID() uuid.UUID { return c.id }

// Identity returns the authenticated identity attached by the gate.
func (c *Connection) Identity() Identity { return c.identity }

// SetOnMessage installs the inbound message handler. Must be called before Run.
func (c *Connection) SetOnMessage(handler MessageHandler) { c.onMessage = handler }

// SetOnClose installs the termination handler. Must be called before Run.
func (c *Connection) SetOnClose(handler OnCloseHandler) { c.onClose = handler }

// Run starts the read and write pumps.
func (c *Connection) Run() {
	go c.readPump()
	go c.writePump()
}

// readPump pumps messages from the WebSocket connection to the message handler.
func (c *Connection) readPump() {
	var readErr error
	defer func() {
		c.Close(readErr)
	}()

	for {
		readCtx, cancelRead := context.WithTimeout(c.ctx, c.readTimeout)
		typ, r, err := c.ws.Reader(readCtx)
		if err != nil {
			cancelRead()
			readErr = err
			return
		}
		if typ != websocket.MessageText && typ != websocket.MessageBinary {
			cancelRead()
			continue
		}
		message, err := io.ReadAll(r)
		cancelRead()
		if err != nil {
			readErr = err
			return
		}
		if c.onMessage != nil {
			c.onMessage(c.ctx, c, message)
		}
	}
}

// writePump pumps messages from the send channel to the WebSocket connection.
func (c *Connection) writePump() {
	var writeErr error
	defer func() {
		c.Close(writeErr)
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.ws.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := c.ws.Write(c.ctx, websocket.MessageText, message); err != nil {
				writeErr = err
				return
			}
		case <-c.ctx.Done():
			c.ws.Close(websocket.StatusNormalClosure, "connection cancelled")
			return
		}
	}
}

// Send queues a message for delivery. When the buffer is full the message is
// dropped rather than blocking the broadcaster.
func (c *Connection) Send(message []byte) {
	select {
	case c.send <- message:
	case <-c.ctx.Done():
	default:
		logger.Warn("Dropping message for slow connection", "connID", c.id.String())
	}
}

// Close gracefully shuts down the connection and its pumps. Safe to call
// more than once.
func (c *Connection) Close(err error) {
	c.closeOnce.Do(func() {
		c.cancel()
		c.ws.Close(websocket.StatusNormalClosure, "")
		if c.onClose != nil {
			c.onClose(c, err)
		}
		close(c.done)
	})
}

// Done returns a channel closed when the connection is fully terminated.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}
