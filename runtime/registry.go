package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"log/slog"
	"slices"
	"sync"
	"time"
)

var _ contract.IRegistry = (*Registry)(nil)

// Registry tracks the live dashboard connections in registration order.
// It is the single owner of every Connection.
type Registry struct {
	mu          sync.RWMutex
	log         *slog.Logger
	connections []*domain.Connection
	now         func() time.Time
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{log: log, now: time.Now}
}

// Register wraps a freshly accepted transport and queues the welcome frame.
// The welcome is queued before the connection becomes visible to broadcasts,
// so it is always the first frame the viewer reads.
func (r *Registry) Register(t domain.Transport) *domain.Connection {
	conn := domain.NewConnection(t)

	frame, err := domain.NewWelcomeEnvelope(r.now()).Marshal()
	if err == nil {
		err = t.Send(frame)
	}
	if err != nil {
		r.log.Warn("Failed to queue welcome frame", "conn_id", conn.ID, "error", err)
	}

	r.mu.Lock()
	r.connections = append(r.connections, conn)
	total := len(r.connections)
	r.mu.Unlock()

	r.log.Info("Viewer connected", "conn_id", conn.ID, "connections", total)
	return conn
}

// Unregister removes the connection. Removing an absent connection is a no-op.
func (r *Registry) Unregister(c *domain.Connection) {
	if c == nil {
		return
	}
	r.mu.Lock()
	idx := slices.Index(r.connections, c)
	if idx < 0 {
		r.mu.Unlock()
		return
	}
	r.connections = slices.Delete(r.connections, idx, idx+1)
	total := len(r.connections)
	r.mu.Unlock()

	r.log.Info("Viewer disconnected", "conn_id", c.ID, "connections", total)
}

// All returns a snapshot; callers may iterate it while the registry changes.
func (r *Registry) All() []*domain.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.connections)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

// Close removes every connection and closes its transport.
func (r *Registry) Close() {
	r.mu.Lock()
	connections := r.connections
	r.connections = nil
	r.mu.Unlock()

	for _, c := range connections {
		_ = c.Transport().Close()
	}
	r.log.Debug("Registry closed", "closed", len(connections))
}
