// Package service is the session lifecycle manager: create, validate, close,
// cascade revocation, expiry and stats over a durable store and an advisory
// activity cache.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"mcpgate/internal/session/metrics"
	"mcpgate/pkg/platform/audit"
	"mcpgate/pkg/platform/circuit"
	"mcpgate/pkg/platform/tracer"
)

type Service struct {
	repo      Repository
	cache     ActivityCache
	ids       IDGenerator
	admission Admitter
	publisher AuditPublisher
	auditor   *audit.Logger
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    tracer.Tracer
	breaker   *circuit.Breaker
	now       func() time.Time
	cfg       *Config
	writer    *activityWriter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithBreaker guards asynchronous activity writes.
func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Service) {
		s.breaker = b
	}
}

func WithConfig(cfg *Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// WithNow overrides the clock. Tests drive expiry with it.
func WithNow(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New wires the lifecycle manager and starts its activity writer. Call
// Shutdown to drain pending writes.
func New(repo Repository, activity ActivityCache, ids IDGenerator, admission Admitter, opts ...Option) (*Service, error) {
	if repo == nil || activity == nil {
		return nil, errors.New("repository and activity cache are required")
	}
	if ids == nil || admission == nil {
		return nil, errors.New("id generator and admitter are required")
	}
	svc := &Service{
		repo:      repo,
		cache:     activity,
		ids:       ids,
		admission: admission,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.tracer == nil {
		svc.tracer = tracer.NewNoop()
	}
	if svc.breaker == nil {
		svc.breaker = circuit.New("session-activity")
	}
	svc.cfg = svc.cfg.withDefaults()

	var emitter audit.Emitter
	if svc.publisher != nil {
		emitter = svc.publisher
	}
	svc.auditor = audit.NewLogger(svc.logger, emitter)
	svc.writer = newActivityWriter(svc.repo, svc.cache, svc.breaker, svc.logger, svc.metrics,
		svc.cfg.ActivityWorkers, svc.cfg.ActivityQueueSize)
	return svc, nil
}

// SessionTimeout is the idle window after which sessions lapse.
func (s *Service) SessionTimeout() time.Duration {
	return s.cfg.SessionTimeout
}

// Now exposes the service clock so the reconciler shares it.
func (s *Service) Now() time.Time {
	return s.now()
}

// Shutdown stops accepting activity writes and waits for queued ones.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.writer.shutdown(ctx)
}

func (s *Service) cutoff(now time.Time) time.Time {
	return now.Add(-s.cfg.SessionTimeout)
}
