package runtime

import (
	"chat-relay/domain"
	"chat-relay/internal/testutil"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register_SendsWelcomeFirst(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug))
	transport := testutil.NewFakeTransport()

	// Given no viewer is connected
	req.Zero(registry.Len())

	// When a viewer connects
	conn := registry.Register(transport)

	// Then the connection is registered and alive
	req.True(conn.IsAlive())
	req.Equal([]*domain.Connection{conn}, registry.All())

	// And the only frame received is the welcome envelope
	frames := transport.Frames()
	req.Len(frames, 1)
	var env struct {
		Type string             `json:"type"`
		Data domain.MessageData `json:"data"`
	}
	req.NoError(json.Unmarshal(frames[0], &env))
	req.Equal("message", env.Type)
	req.Equal(domain.SystemSender, env.Data.From)
}

func TestRegistry_Register_KeepsRegistrationOrder(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug))

	first := registry.Register(testutil.NewFakeTransport())
	second := registry.Register(testutil.NewFakeTransport())
	third := registry.Register(testutil.NewFakeTransport())

	req.Equal([]*domain.Connection{first, second, third}, registry.All())
}

func TestRegistry_Register_WelcomeFailureStillRegisters(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug))
	transport := testutil.NewFakeTransport()
	transport.SendErr = fmt.Errorf("queue full")

	conn := registry.Register(transport)

	req.Contains(registry.All(), conn)
}

func TestRegistry_Unregister_IsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug))
	conn1 := registry.Register(testutil.NewFakeTransport())
	conn2 := registry.Register(testutil.NewFakeTransport())

	// When the same connection is removed twice
	registry.Unregister(conn1)
	registry.Unregister(conn1)
	registry.Unregister(nil)

	// Then only the other connection remains
	req.Equal([]*domain.Connection{conn2}, registry.All())
}

func TestRegistry_All_IsSnapshot(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug))
	conn := registry.Register(testutil.NewFakeTransport())

	snapshot := registry.All()
	registry.Unregister(conn)

	// The snapshot taken before is untouched
	req.Len(snapshot, 1)
	req.Empty(registry.All())
}

func TestRegistry_ConcurrentRegisterUnregister_LeavesNoStaleEntry(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelError))

	var wg sync.WaitGroup
	var stale atomic.Int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn := registry.Register(testutil.NewFakeTransport())
			_ = registry.All()
			registry.Unregister(conn)
			if slices.Contains(registry.All(), conn) {
				stale.Add(1)
			}
		}()
	}
	wg.Wait()

	req.Zero(stale.Load())
	req.Zero(registry.Len())
}

func TestRegistry_Close_ClosesEveryTransport(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(logs.GetLoggerFromLevel(slog.LevelDebug))
	t1 := testutil.NewFakeTransport()
	t2 := testutil.NewFakeTransport()
	registry.Register(t1)
	registry.Register(t2)

	registry.Close()

	req.Zero(registry.Len())
	req.True(t1.Closed())
	req.True(t2.Closed())
}
