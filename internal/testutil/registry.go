package testutil

import (
	"chat-relay/domain"
	"slices"
	"sync"
)

// FakeRegistry is a minimal in-memory registry for worker tests.
// It does not send the welcome frame.
type FakeRegistry struct {
	mu          sync.Mutex
	connections []*domain.Connection
}

func NewFakeRegistry() *FakeRegistry {
	return &FakeRegistry{}
}

func (r *FakeRegistry) Register(t domain.Transport) *domain.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn := domain.NewConnection(t)
	r.connections = append(r.connections, conn)
	return conn
}

func (r *FakeRegistry) Unregister(c *domain.Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections = slices.DeleteFunc(r.connections, func(item *domain.Connection) bool { return item == c })
}

func (r *FakeRegistry) All() []*domain.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.connections)
}

func (r *FakeRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.connections)
}
