package workers

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"context"
	"log/slog"
)

var _ contract.Worker = (*DispatchWorker)(nil)

// DispatchWorker is one unit of the command pool. Several of them drain the
// same inbound channel so a slow backend call only holds its own worker.
type DispatchWorker struct {
	inbound <-chan domain.InboundMessage
	handler contract.IMessageHandler
	log     *slog.Logger
}

func NewDispatchWorker(
	inbound <-chan domain.InboundMessage,
	handler contract.IMessageHandler,
	log *slog.Logger) *DispatchWorker {
	return &DispatchWorker{
		inbound: inbound,
		handler: handler,
		log:     log,
	}
}

func (w *DispatchWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping dispatch worker")
			return ctx.Err()
		case msg, ok := <-w.inbound:
			if !ok {
				w.log.Debug("Inbound channel is closed")
				return nil
			}
			w.handler.Process(ctx, msg)
		}
	}
}
