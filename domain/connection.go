// Package domain contains core concepts of the relay.
// This file defines the dashboard viewer Connection and the Transport it wraps.
// No network code should be added here.
package domain

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Transport abstracts one viewer's duplex channel.
// Implementations must be safe for concurrent use.
type Transport interface {
	// Send queues one serialized frame. It never blocks on the network.
	Send(frame []byte) error
	// Ping writes a probe frame; the peer acknowledges it out of band.
	Ping() error
	// Ready reports whether frames can still be written.
	Ready() bool
	// Close is idempotent: closing a closed transport returns nil.
	Close() error
}

// Connection is a registered viewer. The liveness flag proves the peer
// answered since the last probe.
type Connection struct {
	ID        uuid.UUID
	transport Transport
	alive     atomic.Bool
}

func NewConnection(t Transport) *Connection {
	c := &Connection{ID: uuid.New(), transport: t}
	c.alive.Store(true)
	return c
}

func (c *Connection) Transport() Transport { return c.transport }

func (c *Connection) MarkAlive() { c.alive.Store(true) }

// ClearAlive is called right before a probe is sent.
func (c *Connection) ClearAlive() { c.alive.Store(false) }

func (c *Connection) IsAlive() bool { return c.alive.Load() }
