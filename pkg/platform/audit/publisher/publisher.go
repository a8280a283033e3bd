package publisher

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	dErrors "mcpgate/pkg/domain-errors"
	audit "mcpgate/pkg/platform/audit"
	"mcpgate/pkg/platform/audit/metrics"
)

// Publisher hands audit records to a Store, either inline or through a
// bounded queue drained by a background goroutine. Emit never blocks on a
// full queue: the record is dropped and reported instead.
type Publisher struct {
	store   audit.Store
	records chan audit.Record
	wg      sync.WaitGroup
	logger  *slog.Logger
	metrics *metrics.Metrics
	async   bool
	workers int
	closing atomic.Bool
	mu      sync.RWMutex
	now     func() time.Time
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.records = make(chan audit.Record, size)
			p.async = true
		}
	}
}

// WithWorkers sets how many goroutines drain the async buffer. Records
// from different workers may reach the store out of order.
func WithWorkers(n int) PublisherOption {
	return func(p *Publisher) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) PublisherOption {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func WithNow(now func() time.Time) PublisherOption {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

func NewPublisher(store audit.Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, now: time.Now, workers: 1}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		for range p.workers {
			p.wg.Go(p.processRecords)
		}
	}
	return p
}

func (p *Publisher) processRecords() {
	for record := range p.records {
		p.persist(record)
		if p.metrics != nil {
			p.metrics.QueueDepth.Set(float64(len(p.records)))
			if p.closing.Load() {
				p.metrics.DrainedOnClose.Inc()
			}
		}
	}
}

func (p *Publisher) persist(record audit.Record) {
	start := time.Now()
	// Detached from the emitting request: the record outlives it.
	err := p.store.Append(context.Background(), record)
	if p.metrics != nil {
		p.metrics.PersistDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if p.metrics != nil {
			p.metrics.PersistFailures.Inc()
		}
		if p.logger != nil {
			p.logger.Error("failed to persist audit record",
				"error", err,
				"action", record.Action,
				"session_id", record.SessionID,
			)
		}
		return
	}
	if p.metrics != nil {
		p.metrics.EventsProcessed.Inc()
	}
}

// Close stops accepting records and waits for the queue to drain.
func (p *Publisher) Close() {
	if !p.async {
		return
	}
	p.mu.Lock()
	if p.closing.Swap(true) {
		p.mu.Unlock()
		return
	}
	close(p.records)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Publisher) Emit(ctx context.Context, record audit.Record) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = p.now()
	}
	if record.ID == "" {
		record.ID = audit.NewRecordID()
	}
	if !p.async {
		return p.store.Append(ctx, record)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closing.Load() {
		return dErrors.New(dErrors.CodeInternal, "audit publisher closed")
	}
	select {
	case p.records <- record:
		if p.metrics != nil {
			p.metrics.EventsEnqueued.Inc()
			p.metrics.QueueDepth.Set(float64(len(p.records)))
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		if p.metrics != nil {
			p.metrics.EventsDropped.Inc()
		}
		if p.logger != nil {
			p.logger.Warn("audit buffer full, record dropped",
				"action", record.Action,
				"session_id", record.SessionID,
			)
		}
		return dErrors.New(dErrors.CodeInternal, "audit buffer full")
	}
}
