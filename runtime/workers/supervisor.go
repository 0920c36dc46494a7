package workers

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var _ contract.ISupervisor = (*Supervisor)(nil)

const (
	minRestartDelay = 200 * time.Millisecond
	maxRestartDelay = 10 * time.Second
	// A worker that ran this long before failing starts over from minRestartDelay.
	stableRun = 30 * time.Second
)

// Supervisor keeps the relay workers (dispatch pool, poller, liveness, replay,
// monitoring) running until its context ends or Stop is called.
//
// A worker returning nil is finished and stays down. A worker returning an
// error or panicking is restarted on its own, with a doubling delay, while the
// other workers carry on.
type Supervisor struct {
	log      *slog.Logger
	wg       sync.WaitGroup
	mu       sync.Mutex
	workers  []contract.Worker
	stop     chan struct{}
	stopOnce sync.Once
}

func NewSupervisor(log *slog.Logger) *Supervisor {
	return &Supervisor{log: log, stop: make(chan struct{})}
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = append(s.workers, worker...)
	return s
}

// Run starts every added worker and blocks until all of them have returned.
// Stop may be called before, during or after Run.
func (s *Supervisor) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.mu.Lock()
	workers := append([]contract.Worker(nil), s.workers...)
	s.mu.Unlock()

	for _, worker := range workers {
		s.Start(ctx, worker)
	}
	s.wg.Wait()
}

// Start supervises one worker in its own goroutine.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	name := contract.GetWorkerName(worker)
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		delay := minRestartDelay

		for ctx.Err() == nil {
			startedAt := time.Now()
			err := runGuarded(ctx, worker)
			if err == nil {
				s.log.Info("Worker finished", "worker", name)
				return
			}
			if ctx.Err() != nil {
				break
			}
			if time.Since(startedAt) >= stableRun {
				delay = minRestartDelay
			}
			s.log.Warn("Worker failed, restarting", "worker", name, "delay", delay, "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
			delay = nextRestartDelay(delay)
		}
		s.log.Info("Worker stopped", "worker", name)
	}()
}

// Stop cancels the running workers. Calling it more than once is harmless.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func runGuarded(ctx context.Context, worker contract.Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()
	return worker.Run(ctx)
}

func nextRestartDelay(delay time.Duration) time.Duration {
	return min(delay*2, maxRestartDelay)
}
