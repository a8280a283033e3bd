package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mcpgate/internal/platform/config"
	"mcpgate/internal/platform/database"
	"mcpgate/internal/platform/health"
	"mcpgate/internal/platform/kafka/producer"
	"mcpgate/internal/platform/redis"
	"mcpgate/internal/session/admission"
	"mcpgate/internal/session/cache"
	"mcpgate/internal/session/handler"
	"mcpgate/internal/session/idgen"
	sessionmetrics "mcpgate/internal/session/metrics"
	"mcpgate/internal/session/service"
	"mcpgate/internal/session/store"
	"mcpgate/internal/session/workers/reconciler"
	audit "mcpgate/pkg/platform/audit"
	auditmetrics "mcpgate/pkg/platform/audit/metrics"
	auditpublisher "mcpgate/pkg/platform/audit/publisher"
	auditkafka "mcpgate/pkg/platform/audit/store/kafka"
	auditmemory "mcpgate/pkg/platform/audit/store/memory"
	auditpostgres "mcpgate/pkg/platform/audit/store/postgres"
	"mcpgate/pkg/platform/circuit"
	"mcpgate/pkg/platform/middleware/admin"
	"mcpgate/pkg/platform/middleware/request"
	"mcpgate/pkg/platform/tracer"
)

const maxRequestBody = 64 << 10

type application struct {
	router     http.Handler
	pool       *database.Pool
	redis      *redis.Client
	producer   *producer.Producer
	publisher  *auditpublisher.Publisher
	sessions   *service.Service
	reconciler *reconciler.Reconciler
	shutdown   config.Server
}

func build(ctx context.Context, cfg *config.Config, log *slog.Logger) (_ *application, err error) {
	app := &application{shutdown: cfg.Server}
	defer func() {
		if err != nil {
			app.close(log)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app.pool, err = database.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	var sessions service.Repository = store.NewInMemory()
	if app.pool != nil {
		if err := app.pool.RegisterMetrics(reg); err != nil {
			return nil, fmt.Errorf("register db metrics: %w", err)
		}
		sessions = store.NewPostgres(app.pool.DB())
	} else {
		log.Warn("DATABASE_URL not set, sessions are kept in memory")
	}

	app.redis, err = redis.New(ctx, cfg.Redis, redis.NewPoolMetrics(reg))
	if err != nil {
		return nil, err
	}
	var activity service.ActivityCache = cache.NewMemory()
	if cfg.Session.Cache == config.CacheRedis {
		// Entries outlive the idle window by one sweep so the sweep can
		// reconcile them forward before Redis drops them.
		activity = cache.NewRedis(app.redis.Client, cfg.Session.Timeout+cfg.Session.SweepInterval, cache.WithLogger(log))
	}

	auditStore, auditReader, err := app.buildAuditSink(cfg, log)
	if err != nil {
		return nil, err
	}
	app.publisher = auditpublisher.NewPublisher(auditStore,
		auditpublisher.WithAsyncBuffer(cfg.Audit.BufferSize),
		auditpublisher.WithWorkers(cfg.Audit.Workers),
		auditpublisher.WithMetrics(auditmetrics.NewWithRegistry(reg)),
		auditpublisher.WithPublisherLogger(log),
	)

	m := sessionmetrics.NewWithRegistry(reg)
	t := tracer.NewOTel()
	app.sessions, err = service.New(
		sessions,
		activity,
		idgen.New(sessions, idgen.WithLogger(log), idgen.WithMetrics(m)),
		admission.New(sessions,
			admission.WithMaxSessions(cfg.Session.MaxSessions),
			admission.WithMaxSessionsPerCredential(cfg.Session.MaxPerCredential),
			admission.WithLogger(log),
		),
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithTracer(t),
		service.WithAuditPublisher(app.publisher),
		service.WithBreaker(circuit.New("session-activity")),
		service.WithConfig(&service.Config{
			SessionTimeout:        cfg.Session.Timeout,
			RecentWindow:          cfg.Session.RecentWindow,
			ActivityWriteInterval: cfg.Session.ActivityWriteInterval,
			ActivityWorkers:       cfg.Session.ActivityWorkers,
			ActivityQueueSize:     cfg.Session.ActivityQueueSize,
		}),
	)
	if err != nil {
		return nil, err
	}

	app.reconciler, err = reconciler.New(app.sessions, sessions, activity,
		reconciler.WithInterval(cfg.Session.SweepInterval),
		reconciler.WithTimeout(cfg.Session.SweepTimeout),
		reconciler.WithRetention(cfg.Session.Retention),
		reconciler.WithLogger(log),
		reconciler.WithMetrics(m),
		reconciler.WithTracer(t),
	)
	if err != nil {
		return nil, err
	}

	proxies, err := cfg.Server.Proxies()
	if err != nil {
		return nil, err
	}
	app.router = app.routes(cfg, log, reg, proxies, auditReader)
	return app, nil
}

// buildAuditSink picks the audit store. The reader is nil when the sink
// cannot be queried back, which hides the audit admin routes.
func (app *application) buildAuditSink(cfg *config.Config, log *slog.Logger) (audit.Store, audit.Reader, error) {
	switch cfg.Audit.Sink {
	case config.AuditSinkPostgres:
		if app.pool == nil {
			return nil, nil, fmt.Errorf("AUDIT_SINK=postgres requires DATABASE_URL")
		}
		s := auditpostgres.New(app.pool.DB())
		return s, s, nil
	case config.AuditSinkKafka:
		p, err := producer.New(cfg.Kafka, log)
		if err != nil {
			return nil, nil, err
		}
		app.producer = p
		return auditkafka.New(p, cfg.Kafka.AuditTopic), nil, nil
	default:
		s := auditmemory.NewInMemoryStore()
		return s, s, nil
	}
}

func (app *application) routes(cfg *config.Config, log *slog.Logger, reg *prometheus.Registry, proxies []netip.Prefix, reader audit.Reader) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(log))
	r.Use(request.RequestID)
	r.Use(request.ClientIP(proxies))
	r.Use(request.Logger(log))
	r.Use(request.Latency(request.NewMetrics(reg)))
	r.Use(request.Timeout(cfg.Server.RequestTimeout))

	checks := health.New(cfg.Server.Environment)
	if app.pool != nil {
		checks.RegisterCheck("postgres", app.pool.Health)
	}
	if app.redis != nil {
		checks.RegisterCheck("redis", app.redis.Health)
	}
	if app.producer != nil {
		checks.RegisterCheck("kafka", app.producer.Health)
	}
	checks.Register(r)
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	sessionHandler := handler.New(app.sessions, app.reconciler, reader, log)
	r.Group(func(r chi.Router) {
		r.Use(request.BodyLimit(maxRequestBody))
		r.Use(request.ContentTypeJSON)
		r.Use(admin.RequireAdminToken(cfg.Server.AdminToken, log))
		sessionHandler.Register(r)
	})
	return r
}

// close releases everything build opened, in reverse dependency order.
// Safe on a partially built application.
func (app *application) close(log *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), app.shutdown.ShutdownTimeout)
	defer cancel()

	if app.sessions != nil {
		if err := app.sessions.Shutdown(ctx); err != nil {
			log.Warn("activity writer did not drain", "error", err)
		}
	}
	if app.publisher != nil {
		app.publisher.Close()
	}
	if app.producer != nil {
		if err := app.producer.Close(); err != nil {
			log.Warn("kafka producer close failed", "error", err)
		}
	}
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			log.Warn("redis close failed", "error", err)
		}
	}
	if app.pool != nil {
		if err := app.pool.Close(); err != nil {
			log.Warn("database close failed", "error", err)
		}
	}
}
