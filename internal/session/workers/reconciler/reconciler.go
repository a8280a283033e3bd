// Package reconciler runs the periodic expiration sweep: expire idle
// sessions, purge long-inactive records and reconcile the activity cache
// against the store.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"mcpgate/internal/session/cache"
	"mcpgate/internal/session/metrics"
	"mcpgate/internal/session/models"
	id "mcpgate/pkg/domain"
	dErrors "mcpgate/pkg/domain-errors"
	"mcpgate/pkg/platform/sentinel"
	"mcpgate/pkg/platform/tracer"
)

const (
	DefaultInterval  = 15 * time.Minute
	DefaultRetention = 24 * time.Hour
	DefaultTimeout   = 5 * time.Minute
	defaultBatchSize = 500
	maxParallelBatch = 4

	phaseExpire    = "expire"
	phaseReconcile = "reconcile"
	phasePurge     = "purge"
	phaseCache     = "cache"
)

// Sessions is the lifecycle manager's expiry path.
type Sessions interface {
	ExpireSession(ctx context.Context, sessionID id.SessionID) error
	SessionTimeout() time.Duration
	Now() time.Time
}

// Store is the subset of the repository the sweep needs.
type Store interface {
	FindExpiredBefore(ctx context.Context, cutoff time.Time) ([]*models.Session, error)
	DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int, error)
	FilterActive(ctx context.Context, ids []id.SessionID) ([]id.SessionID, error)
	Touch(ctx context.Context, sessionID id.SessionID, at time.Time) error
}

type Cache interface {
	Get(ctx context.Context, sessionID id.SessionID) (*cache.Entry, bool)
	MarkPersisted(ctx context.Context, sessionID id.SessionID, at time.Time)
	Remove(ctx context.Context, sessionID id.SessionID) bool
	PruneStale(ctx context.Context, cutoff time.Time) int
	IDs(ctx context.Context) []id.SessionID
	Len(ctx context.Context) int
}

// Reconciler runs at most one sweep at a time. A trigger that arrives while
// a sweep is running joins it and gets its result. The shared sweep is not
// tied to any one trigger's context: it ends on its own timeout or when
// Start returns.
type Reconciler struct {
	sessions  Sessions
	store     Store
	cache     Cache
	interval  time.Duration
	retention time.Duration
	timeout   time.Duration
	batchSize int
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
	group     singleflight.Group

	life context.Context
	halt context.CancelFunc
}

type Option func(*Reconciler)

// WithInterval overrides the sweep interval when greater than zero.
func WithInterval(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithRetention sets how long inactive records are kept before purging.
func WithRetention(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.retention = d
		}
	}
}

// WithTimeout bounds how long one sweep may run.
func WithTimeout(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithBatchSize bounds how many cached ids are checked per store query.
func WithBatchSize(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(r *Reconciler) {
		if t != nil {
			r.tracer = t
		}
	}
}

func New(sessions Sessions, store Store, activity Cache, opts ...Option) (*Reconciler, error) {
	if sessions == nil || store == nil || activity == nil {
		return nil, fmt.Errorf("sessions, store, and cache are required")
	}
	r := &Reconciler{
		sessions:  sessions,
		store:     store,
		cache:     activity,
		interval:  DefaultInterval,
		retention: DefaultRetention,
		timeout:   DefaultTimeout,
		batchSize: defaultBatchSize,
		logger:    slog.Default(),
		tracer:    tracer.NewNoop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	r.life, r.halt = context.WithCancel(context.Background())
	return r, nil
}

// Start sweeps every interval until ctx is cancelled. A sweep still running
// at that point is cancelled too.
func (r *Reconciler) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	defer r.halt()

	for {
		select {
		case <-ticker.C:
			// RunOnce logs its own failures.
			_, _ = r.RunOnce(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs one sweep, or joins the one in flight. Phase failures
// are logged, counted and joined into the returned error; the result still
// reports whatever the other phases did.
//
// Cancelling ctx only stops the wait. The sweep carries on for the other
// callers, bounded by the sweep timeout.
func (r *Reconciler) RunOnce(ctx context.Context) (*models.SweepResult, error) {
	if err := ctx.Err(); err != nil {
		return &models.SweepResult{}, err
	}
	ch := r.group.DoChan("sweep", func() (any, error) {
		sweepCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		stop := context.AfterFunc(r.life, cancel)
		defer stop()
		return r.sweep(sweepCtx)
	})

	select {
	case <-ctx.Done():
		return &models.SweepResult{}, ctx.Err()
	case out := <-ch:
		res, _ := out.Val.(*models.SweepResult)
		if res == nil {
			res = &models.SweepResult{}
		}
		copied := *res
		return &copied, out.Err
	}
}

func (r *Reconciler) sweep(ctx context.Context) (res *models.SweepResult, err error) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, tracer.SpanSweep)
	res = &models.SweepResult{}
	defer func() {
		res.Duration = time.Since(start)
		res.DurationMs = res.Duration.Milliseconds()
		span.SetAttributes(
			tracer.Int("sweep.expired", res.Expired),
			tracer.Int("sweep.purged", res.Purged),
			tracer.Int("sweep.cache_pruned", res.CachePruned),
			tracer.Duration("sweep.duration_ms", res.Duration),
		)
		span.End(err)
		r.record(ctx, res, err)
	}()

	now := r.sessions.Now()
	cutoff := now.Add(-r.sessions.SessionTimeout())
	var errs []error

	if err := r.expire(ctx, cutoff, res); err != nil {
		errs = append(errs, err)
	}
	if err := ctx.Err(); err != nil {
		return res, errors.Join(append(errs, err)...)
	}

	purged, err := r.store.DeleteInactiveBefore(ctx, now.Add(-r.retention))
	if err != nil {
		r.fail(phasePurge)
		errs = append(errs, fmt.Errorf("purge inactive sessions: %w", err))
	}
	res.Purged = purged
	if err := ctx.Err(); err != nil {
		return res, errors.Join(append(errs, err)...)
	}

	pruned, err := r.reconcileCache(ctx, cutoff)
	res.CachePruned = pruned
	if err != nil {
		r.fail(phaseCache)
		errs = append(errs, err)
	}

	return res, errors.Join(errs...)
}

// expire deactivates sessions idle since before cutoff. A candidate whose
// cache entry is still fresh had its store write dropped or delayed; its
// store activity is moved forward instead.
func (r *Reconciler) expire(ctx context.Context, cutoff time.Time, res *models.SweepResult) error {
	candidates, err := r.store.FindExpiredBefore(ctx, cutoff)
	if err != nil {
		r.fail(phaseExpire)
		return fmt.Errorf("find expired sessions: %w", err)
	}

	var errs []error
	for _, session := range candidates {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if entry, ok := r.cache.Get(ctx, session.ID); ok && entry.FreshAt(cutoff) {
			err := r.store.Touch(ctx, session.ID, entry.LastActivity)
			if errors.Is(err, sentinel.ErrNotFound) {
				// Closed since it was selected.
				r.cache.Remove(ctx, session.ID)
				continue
			}
			if err != nil {
				r.fail(phaseReconcile)
				errs = append(errs, fmt.Errorf("reconcile activity for %s: %w", session.ID, err))
				continue
			}
			r.cache.MarkPersisted(ctx, session.ID, entry.LastActivity)
			res.Reconciled++
			continue
		}
		err := r.sessions.ExpireSession(ctx, session.ID)
		switch {
		case err == nil:
			res.Expired++
		case dErrors.HasCode(err, dErrors.CodeNotFound):
			// Touched or closed since it was selected.
		default:
			r.fail(phaseExpire)
			errs = append(errs, fmt.Errorf("expire session %s: %w", session.ID, err))
		}
	}
	return errors.Join(errs...)
}

// reconcileCache drops stale entries, then checks the rest against the store
// in batches and drops any whose record is no longer active.
func (r *Reconciler) reconcileCache(ctx context.Context, cutoff time.Time) (int, error) {
	pruned := r.cache.PruneStale(ctx, cutoff)

	ids := r.cache.IDs(ctx)
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelBatch)
	for batch := range slices.Chunk(ids, r.batchSize) {
		g.Go(func() error {
			active, err := r.store.FilterActive(gctx, batch)
			if err != nil {
				return fmt.Errorf("filter active sessions: %w", err)
			}
			live := make(map[id.SessionID]struct{}, len(active))
			for _, sessionID := range active {
				live[sessionID] = struct{}{}
			}
			removed := 0
			for _, sessionID := range batch {
				if _, ok := live[sessionID]; ok {
					continue
				}
				if r.cache.Remove(gctx, sessionID) {
					removed++
				}
			}
			mu.Lock()
			pruned += removed
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	return pruned, err
}

func (r *Reconciler) fail(phase string) {
	if r.metrics != nil {
		r.metrics.IncrementSweepFailure(phase)
	}
}

func (r *Reconciler) record(ctx context.Context, res *models.SweepResult, err error) {
	if r.metrics != nil {
		r.metrics.ObserveSweep(float64(res.DurationMs))
		r.metrics.AddSweepProcessed(phaseExpire, res.Expired)
		r.metrics.AddSweepProcessed(phaseReconcile, res.Reconciled)
		r.metrics.AddSweepProcessed(phasePurge, res.Purged)
		r.metrics.AddSweepProcessed(phaseCache, res.CachePruned)
		r.metrics.SetCacheEntries(r.cache.Len(ctx))
	}
	attrs := []any{
		"expired_count", res.Expired,
		"reconciled_count", res.Reconciled,
		"purged_count", res.Purged,
		"cache_pruned_count", res.CachePruned,
		"duration_ms", res.DurationMs,
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "session sweep finished with errors", append(attrs, "error", err)...)
		return
	}
	r.logger.InfoContext(ctx, "session sweep completed", attrs...)
}
