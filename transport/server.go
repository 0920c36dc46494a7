package transport

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/observability"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// Server upgrades dashboard viewers and registers them for broadcasts.
// Viewers are read-only: inbound frames only prove the connection is alive.
type Server struct {
	log       *slog.Logger
	registry  contract.IRegistry
	upgrader  websocket.Upgrader
	queueSize int
}

func NewServer(log *slog.Logger, registry contract.IRegistry, queueSize int) *Server {
	return &Server{
		log:      log,
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The dashboard is served from another origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		queueSize: queueSize,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		s.log.Debug("WebSocket upgrade refused", "remote", r.RemoteAddr, "error", err)
		return
	}
	t := newWSTransport(conn, s.queueSize)
	go t.writePump()

	c := s.registry.Register(t)
	s.log.Debug("WebSocket upgraded", "conn_id", c.ID, "remote", r.RemoteAddr)
	go s.readPump(c, t)
}

// readPump marks the connection alive on every pong or frame and tears it
// down on the first read error.
func (s *Server) readPump(c *domain.Connection, t *wsTransport) {
	defer func() {
		s.registry.Unregister(c)
		_ = t.Close()
	}()

	t.conn.SetReadLimit(maxInboundSize)
	t.conn.SetPongHandler(func(string) error {
		c.MarkAlive()
		return nil
	})
	for {
		if _, _, err := t.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("Viewer read failed", "conn_id", c.ID, "error", err)
			}
			return
		}
		c.MarkAlive()
	}
}

// NewMux routes the WebSocket endpoint on "/" and "/ws", and monitoring on "/healthz".
func NewMux(server *Server, registry contract.IRegistry, monitoring *observability.MonitoringManager) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/", server)
	mux.Handle("/ws", server)
	mux.Handle("/healthz", monitoring.Handler(registry.Len))
	return mux
}
