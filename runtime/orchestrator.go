// Package runtime wires the relay together: viewer registry, inbound queue,
// dispatch pool and the supervised background workers.
// It orchestrates the system without containing business logic or command rules.
package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/runtime/workers"
	"context"
	"log/slog"
	"sync"
)

const errTelegramConnection = "Telegram bot connection error"

type Orchestrator struct {
	mu          sync.Mutex
	log         *slog.Logger
	numWorkers  int
	supervisor  contract.ISupervisor
	registry    *Registry
	broadcaster contract.IBroadcaster
	handler     contract.IMessageHandler
	inbound     chan domain.InboundMessage
	background  []contract.Worker
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor,
	registry *Registry, broadcaster contract.IBroadcaster, handler contract.IMessageHandler,
	numWorkers, bufferSize int) *Orchestrator {
	return &Orchestrator{
		log:         log,
		numWorkers:  numWorkers,
		supervisor:  supervisor,
		registry:    registry,
		broadcaster: broadcaster,
		handler:     handler,
		inbound:     make(chan domain.InboundMessage, bufferSize),
	}
}

// Add registers background workers (poller, liveness, replay, monitoring)
// to be started with the dispatch pool.
func (o *Orchestrator) Add(w ...contract.Worker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.background = append(o.background, w...)
}

// Dispatch is called by the poller for every inbound message, in arrival order.
// The message is shown to the viewers right away. Commands are then queued
// for the dispatch pool and dropped when the queue is full.
func (o *Orchestrator) Dispatch(msg domain.InboundMessage) {
	o.handler.Observe(msg)
	if !msg.IsCommand() {
		return
	}
	select {
	case o.inbound <- msg:
	default:
		o.log.Warn("Inbound queue full, dropping command", "chat_id", msg.ChatID, "sender", msg.Sender, "text", msg.Text)
	}
}

// InboundQueue exposes the command queue for capacity sampling.
func (o *Orchestrator) InboundQueue() workers.NamedChannel {
	return workers.NamedChannel{Name: "inbound", Channel: o.inbound}
}

// ReportPlatformError tells the viewers the chat platform cannot be reached.
func (o *Orchestrator) ReportPlatformError(err error) {
	o.broadcaster.Broadcast(domain.NewErrorEnvelope(errTelegramConnection, err))
}

// Start registers the dispatch pool and the background workers, then blocks
// in the supervisor until ctx is cancelled or Stop is called.
func (o *Orchestrator) Start(ctx context.Context) {
	pool := o.preparePoolWorkers()

	o.mu.Lock()
	o.supervisor.Add(pool...)
	o.supervisor.Add(o.background...)
	o.mu.Unlock()

	o.log.Info("Starting orchestrator and all supervised workers",
		"dispatch_workers", len(pool), "background_workers", len(o.background))
	o.supervisor.Run(ctx)
}

func (o *Orchestrator) preparePoolWorkers() []contract.Worker {
	var res []contract.Worker
	for i := 0; i < o.numWorkers; i++ {
		res = append(res, workers.NewDispatchWorker(o.inbound, o.handler, o.log))
	}
	return res
}

// Stop cancels the supervised workers and closes every viewer connection.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
	o.registry.Close()
	o.log.Debug("Viewer connections closed")
}
