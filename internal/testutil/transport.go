// Package testutil holds in-memory doubles shared by package tests.
package testutil

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"sync"
)

var _ domain.Transport = (*FakeTransport)(nil)

// FakeTransport records frames and probes instead of writing to a socket.
type FakeTransport struct {
	mu      sync.Mutex
	frames  [][]byte
	pings   int
	closed  bool
	ready   bool
	PingErr error
	SendErr error
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{ready: true}
}

func (f *FakeTransport) Send(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.ErrTransportClosed
	}
	if f.SendErr != nil {
		return f.SendErr
	}
	f.frames = append(f.frames, frame)
	return nil
}

func (f *FakeTransport) Ping() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.ErrTransportClosed
	}
	if f.PingErr != nil {
		return f.PingErr
	}
	f.pings++
	return nil
}

func (f *FakeTransport) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready && !f.closed
}

func (f *FakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// SetReady simulates a transport still handshaking or already closing.
func (f *FakeTransport) SetReady(ready bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ready = ready
}

func (f *FakeTransport) Frames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.frames))
	copy(out, f.frames)
	return out
}

func (f *FakeTransport) Pings() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

func (f *FakeTransport) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
