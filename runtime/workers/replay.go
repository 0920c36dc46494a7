package workers

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"chat-relay/observability"
	"context"
	"log/slog"
	"time"
)

var _ contract.Worker = (*ReplayWorker)(nil)

const replayBatchSize = 50

// ReplayWorker retries the bot messages the backend refused earlier.
// Entries are deleted from the journal only once the backend accepted them.
type ReplayWorker struct {
	log        *slog.Logger
	journal    contract.IJournal
	gateway    contract.IGateway
	monitoring *observability.MonitoringManager
	interval   time.Duration
}

func NewReplayWorker(
	log *slog.Logger,
	journal contract.IJournal,
	gateway contract.IGateway,
	monitoring *observability.MonitoringManager,
	interval time.Duration,
) *ReplayWorker {
	return &ReplayWorker{
		log:        log,
		journal:    journal,
		gateway:    gateway,
		monitoring: monitoring,
		interval:   interval,
	}
}

func (w *ReplayWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Replay(ctx); err != nil {
				w.log.Warn("Journal replay interrupted", "error", err)
			}
		}
	}
}

// Replay pushes one batch of pending entries and returns how many were accepted.
// It stops at the first retryable failure since the backend is most likely
// still down. An entry the backend rejects is dropped so it cannot hold back
// the entries queued after it.
func (w *ReplayWorker) Replay(ctx context.Context) (int, error) {
	entries, err := w.journal.Pending(replayBatchSize)
	if err != nil {
		return 0, err
	}
	replayed := 0
	for _, entry := range entries {
		err := w.gateway.InsertMessage(ctx, entry.Message)
		if errors.IsRejected(err) {
			w.log.Error("Journaled message rejected, dropping it",
				"key", entry.Key, "sender", entry.Message.Name, "error", err)
			w.monitoring.IncrJournalDropped()
			if err := w.journal.Delete(entry.Key); err != nil {
				return replayed, err
			}
			continue
		}
		if err != nil {
			return replayed, err
		}
		if err := w.journal.Delete(entry.Key); err != nil {
			return replayed, err
		}
		replayed++
		w.monitoring.IncrJournalReplayed()
	}
	if replayed > 0 {
		w.log.Info("Journaled messages replayed", "count", replayed)
	}
	return replayed, nil
}
