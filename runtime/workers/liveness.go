package workers

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/observability"
	"context"
	"log/slog"
	"time"
)

var _ contract.Worker = (*LivenessWorker)(nil)

// LivenessWorker evicts dashboard connections that stopped answering probes.
// A connection survives a cycle only if it acknowledged something since the
// previous one: a single missed probe is enough to evict.
type LivenessWorker struct {
	log        *slog.Logger
	registry   contract.IRegistry
	monitoring *observability.MonitoringManager
	interval   time.Duration
}

func NewLivenessWorker(
	log *slog.Logger,
	registry contract.IRegistry,
	monitoring *observability.MonitoringManager,
	interval time.Duration,
) *LivenessWorker {
	return &LivenessWorker{
		log:        log,
		registry:   registry,
		monitoring: monitoring,
		interval:   interval,
	}
}

// Run sweeps the registry every interval. The ticker is owned by Run and
// stopped when ctx is cancelled, so no sweep happens after teardown.
func (w *LivenessWorker) Run(ctx context.Context) error {
	w.log.Info("Starting liveness worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if evicted := w.Sweep(); evicted > 0 {
				w.log.Info("Unresponsive viewers evicted", "evicted", evicted, "connections", w.registry.Len())
			}
		}
	}
}

// Sweep runs one probe cycle and returns the number of evicted connections.
func (w *LivenessWorker) Sweep() int {
	evicted := 0
	for _, conn := range w.registry.All() {
		if !conn.IsAlive() {
			w.evict(conn)
			evicted++
			continue
		}
		conn.ClearAlive()
		if err := conn.Transport().Ping(); err != nil {
			w.log.Warn("Probe failed", "conn_id", conn.ID, "error", err)
			w.evict(conn)
			evicted++
		}
	}
	return evicted
}

// evict removes the connection first so no broadcast picks it up, then
// force-closes it. Closing an already closed transport is not an error.
func (w *LivenessWorker) evict(conn *domain.Connection) {
	w.registry.Unregister(conn)
	if err := conn.Transport().Close(); err != nil {
		w.log.Debug("Close after eviction failed", "conn_id", conn.ID, "error", err)
	}
	w.monitoring.IncrEvictions()
}
