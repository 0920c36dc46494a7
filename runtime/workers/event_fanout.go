package workers

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/observability"
	"log/slog"
)

var _ contract.IBroadcaster = (*EventFanout)(nil)

// EventFanout pushes envelopes to every dashboard connection.
//
// It provides best-effort fan-out with no guarantees regarding delivery,
// durability, or retries. A viewer joining after an envelope never sees it.
// EventFanout is not a message broker.
//
// Connections whose transport is not ready are skipped but left in the
// registry: removal belongs to the liveness worker and the close handler.
//
// EventFanout is safe for concurrent use by multiple goroutines.
type EventFanout struct {
	log        *slog.Logger
	registry   contract.IRegistry
	monitoring *observability.MonitoringManager
}

func NewEventFanout(log *slog.Logger, registry contract.IRegistry, monitoring *observability.MonitoringManager) *EventFanout {
	return &EventFanout{log: log, registry: registry, monitoring: monitoring}
}

// Broadcast serializes the envelope once and queues it on each ready connection.
func (f *EventFanout) Broadcast(env domain.Envelope) {
	frame, err := env.Marshal()
	if err != nil {
		f.log.Error("Failed to serialize envelope", "type", env.Kind, "error", err)
		return
	}

	sent := 0
	for _, conn := range f.registry.All() {
		transport := conn.Transport()
		if !transport.Ready() {
			continue
		}
		if err := transport.Send(frame); err != nil {
			f.log.Warn("Frame dropped", "conn_id", conn.ID, "type", env.Kind, "error", err)
			f.monitoring.IncrFramesDropped()
			continue
		}
		sent++
	}
	f.monitoring.IncrEnvelopesSent(sent)
	f.log.Debug("Envelope broadcast", "type", env.Kind, "recipients", sent)
}
