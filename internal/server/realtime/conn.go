package realtime

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/gophchat/internal/models"
)

var (
	// ErrSendBufferFull is returned by Push when the outbound buffer is full
	ErrSendBufferFull = errors.New("send buffer full")

	// ErrConnClosed is returned by Push after the connection was closed
	ErrConnClosed = errors.New("connection closed")
)

// Conn is the push handle of one WebSocket connection.
// Events are queued on a bounded buffer drained by the write pump.
type Conn struct {
	ws        *websocket.Conn
	logger    *slog.Logger
	send      chan models.Event
	done      chan struct{}
	userID    string
	timeouts  Timeouts
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn, userID string, buffer int, timeouts Timeouts, logger *slog.Logger) *Conn {
	return &Conn{
		ws:       ws,
		logger:   logger,
		send:     make(chan models.Event, buffer),
		done:     make(chan struct{}),
		userID:   userID,
		timeouts: timeouts,
	}
}

// UserID returns the authenticated owner of the connection
func (c *Conn) UserID() string {
	return c.userID
}

// Push enqueues evt without blocking. It never reports success for a
// connection that is already closed.
func (c *Conn) Push(evt models.Event) error {
	select {
	case c.send <- evt:
	default:
		select {
		case <-c.done:
			return ErrConnClosed
		default:
			return ErrSendBufferFull
		}
	}

	// Close мог произойти до или во время записи в буфер
	select {
	case <-c.done:
		return ErrConnClosed
	default:
		return nil
	}
}

// Close stops both pumps and closes the socket. Safe to call more than once.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.ws.Close()
	})
}

// readPump читает входящие фреймы только ради close и pong
func (c *Conn) readPump() {
	defer c.Close()

	c.ws.SetReadLimit(maxInboundSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.timeouts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.timeouts.PongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("WebSocket read error",
					slog.String("user_id", c.userID),
					slog.Any("error", err),
				)
			}
			return
		}
	}
}

// writePump единственный писатель в сокет
func (c *Conn) writePump() {
	ticker := time.NewTicker(c.timeouts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case evt := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.timeouts.WriteWait))
			if err := c.ws.WriteJSON(evt); err != nil {
				c.logger.Warn("WebSocket write failed",
					slog.String("user_id", c.userID),
					slog.Any("error", err),
				)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.timeouts.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.timeouts.WriteWait))
			return
		}
	}
}
