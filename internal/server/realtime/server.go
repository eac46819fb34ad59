// Package realtime implements the WebSocket transport that pushes
// newMessage events to connected users.
package realtime

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/gophchat/internal/server/metrics"
	"github.com/iudanet/gophchat/internal/server/presence"
)

const maxInboundSize = 4096

// Timeouts of the ping/pong keep-alive
type Timeouts struct {
	PingPeriod time.Duration
	PongWait   time.Duration
	WriteWait  time.Duration
}

// DefaultTimeouts пинг каждые 30 секунд, ожидание pong 60 секунд
var DefaultTimeouts = Timeouts{
	PingPeriod: 30 * time.Second,
	PongWait:   60 * time.Second,
	WriteWait:  10 * time.Second,
}

// Registry is the part of the presence registry used by the transport
type Registry interface {
	Connect(userID string, handle presence.Handle) presence.Handle
	Disconnect(userID string, handle presence.Handle) bool
	Count() int
}

// Server upgrades authenticated requests and runs connection lifecycles
type Server struct {
	registry   Registry
	metrics    *metrics.Metrics
	logger     *slog.Logger
	conns      map[*Conn]struct{}
	upgrader   websocket.Upgrader
	timeouts   Timeouts
	sendBuffer int
	mu         sync.Mutex
}

// NewServer creates a new WebSocket server
func NewServer(registry Registry, m *metrics.Metrics, logger *slog.Logger, sendBuffer int, timeouts Timeouts) *Server {
	return &Server{
		registry: registry,
		metrics:  m,
		logger:   logger,
		conns:    make(map[*Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		timeouts:   timeouts,
		sendBuffer: sendBuffer,
	}
}

// Serve upgrades the request for userID and blocks until the connection ends.
// The caller must have authenticated userID already.
func (s *Server) Serve(w http.ResponseWriter, r *http.Request, userID string) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже отправил ответ с ошибкой
		s.logger.WarnContext(r.Context(), "WebSocket upgrade failed", slog.Any("error", err))
		return
	}

	conn := newConn(ws, userID, s.sendBuffer, s.timeouts, s.logger)
	s.track(conn)

	if prev := s.registry.Connect(userID, conn); prev != nil {
		s.logger.InfoContext(r.Context(), "Connection superseded", slog.String("user_id", userID))
	}
	s.metrics.Connections.Set(float64(s.registry.Count()))
	s.logger.InfoContext(r.Context(), "WebSocket connected", slog.String("user_id", userID))

	go conn.writePump()
	conn.readPump()

	// Удаляет только собственную регистрацию, новое подключение не трогаем
	s.registry.Disconnect(userID, conn)
	s.metrics.Connections.Set(float64(s.registry.Count()))
	s.untrack(conn)
	conn.Close()

	s.logger.InfoContext(r.Context(), "WebSocket disconnected", slog.String("user_id", userID))
}

// CloseAll closes every live connection, used on shutdown
func (s *Server) CloseAll() {
	s.mu.Lock()
	conns := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
}

func (s *Server) track(c *Conn) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}
