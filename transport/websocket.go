// Package transport exposes the dashboard WebSocket endpoint and adapts
// gorilla/websocket connections to domain.Transport.
package transport

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var _ domain.Transport = (*wsTransport)(nil)

const (
	writeWait      = 10 * time.Second
	maxInboundSize = 4096
)

// wsTransport owns one WebSocket connection. Frames are queued and written
// by a single writer goroutine. Control frames bypass the queue.
type wsTransport struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
	open      atomic.Bool
}

func newWSTransport(conn *websocket.Conn, queueSize int) *wsTransport {
	t := &wsTransport{
		conn: conn,
		send: make(chan []byte, queueSize),
		done: make(chan struct{}),
	}
	t.open.Store(true)
	return t
}

// Send queues a frame without blocking. A full queue means the viewer is too
// slow and the frame is dropped.
func (t *wsTransport) Send(frame []byte) error {
	if !t.open.Load() {
		return errors.ErrTransportClosed
	}
	select {
	case <-t.done:
		return errors.ErrTransportClosed
	case t.send <- frame:
		return nil
	default:
		return errors.ErrSendQueueFull
	}
}

func (t *wsTransport) Ping() error {
	if !t.open.Load() {
		return errors.ErrTransportClosed
	}
	return t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func (t *wsTransport) Ready() bool {
	return t.open.Load()
}

func (t *wsTransport) Close() error {
	t.closeOnce.Do(func() {
		t.open.Store(false)
		close(t.done)
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}

func (t *wsTransport) writePump() {
	for {
		select {
		case <-t.done:
			return
		case frame := <-t.send:
			_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := t.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				_ = t.Close()
				return
			}
		}
	}
}
