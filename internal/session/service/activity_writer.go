package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"mcpgate/internal/session/metrics"
	id "mcpgate/pkg/domain"
	"mcpgate/pkg/platform/circuit"
	"mcpgate/pkg/platform/sentinel"
)

const (
	defaultActivityWorkers   = 4
	defaultActivityQueueSize = 1024
	activityWriteTimeout     = 5 * time.Second
)

type activityWrite struct {
	ctx       context.Context
	sessionID id.SessionID
	at        time.Time
}

// activityWriter persists fast-path touches off the request path. The queue
// is bounded and enqueue never blocks: when it is full, or the breaker is
// open, the write is dropped and the store lags until the next touch or sweep.
type activityWriter struct {
	repo    Repository
	cache   ActivityCache
	breaker *circuit.Breaker
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	queue  chan activityWrite
	wg     sync.WaitGroup
}

func newActivityWriter(repo Repository, activity ActivityCache, breaker *circuit.Breaker, logger *slog.Logger, m *metrics.Metrics, workers, queueSize int) *activityWriter {
	w := &activityWriter{
		repo:    repo,
		cache:   activity,
		breaker: breaker,
		logger:  logger,
		metrics: m,
		queue:   make(chan activityWrite, queueSize),
	}
	for range workers {
		w.wg.Go(w.run)
	}
	return w
}

// enqueue schedules a store touch. Returns false when the write was dropped.
func (w *activityWriter) enqueue(ctx context.Context, sessionID id.SessionID, at time.Time) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		w.drop(metrics.DropStopped)
		return false
	}
	if !w.breaker.Allow() {
		w.drop(metrics.DropCircuitOpen)
		return false
	}
	// Detach from the request so its cancellation does not abort the write.
	job := activityWrite{ctx: context.WithoutCancel(ctx), sessionID: sessionID, at: at}
	select {
	case w.queue <- job:
		return true
	default:
		w.drop(metrics.DropQueueFull)
		return false
	}
}

func (w *activityWriter) run() {
	for job := range w.queue {
		w.write(job)
	}
}

func (w *activityWriter) write(job activityWrite) {
	ctx, cancel := context.WithTimeout(job.ctx, activityWriteTimeout)
	defer cancel()

	err := w.repo.Touch(ctx, job.sessionID, job.at)
	switch {
	case err == nil:
		w.breaker.RecordSuccess()
		w.cache.MarkPersisted(ctx, job.sessionID, job.at)
		if w.metrics != nil {
			w.metrics.IncrementActivityWrite()
		}
	case errors.Is(err, sentinel.ErrNotFound):
		// The session was closed elsewhere; drop the hint so it stops validating.
		w.breaker.RecordSuccess()
		w.cache.Remove(ctx, job.sessionID)
	default:
		_, change := w.breaker.RecordFailure()
		if w.metrics != nil {
			w.metrics.IncrementActivityWriteError()
		}
		w.logger.WarnContext(ctx, "failed to persist session activity",
			"session_id", job.sessionID,
			"error", err,
		)
		if change.Opened {
			w.logger.ErrorContext(ctx, "session activity writes suspended",
				"breaker", w.breaker.Name(),
			)
		}
	}
}

func (w *activityWriter) drop(reason string) {
	if w.metrics != nil {
		w.metrics.IncrementActivityWriteDrop(reason)
	}
}

// shutdown closes the queue and waits for workers to drain it.
func (w *activityWriter) shutdown(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
