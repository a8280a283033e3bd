// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

const (
	CacheMemory = "memory"
	CacheRedis  = "redis"

	AuditSinkMemory   = "memory"
	AuditSinkPostgres = "postgres"
	AuditSinkKafka    = "kafka"
)

type Config struct {
	Server   Server
	Session  Session
	Database Database
	Redis    Redis
	Kafka    Kafka
	Audit    Audit
	Log      Log
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"MCPGATE_ADDR,default=:8080"`
	Environment     string        `env:"MCPGATE_ENV,default=development"`
	AdminToken      string        `env:"MCPGATE_ADMIN_TOKEN"`
	TrustedProxies  string        `env:"MCPGATE_TRUSTED_PROXIES"`
	ReadTimeout     time.Duration `env:"MCPGATE_READ_TIMEOUT,default=10s"`
	WriteTimeout    time.Duration `env:"MCPGATE_WRITE_TIMEOUT,default=30s"`
	RequestTimeout  time.Duration `env:"MCPGATE_REQUEST_TIMEOUT,default=25s"`
	ShutdownTimeout time.Duration `env:"MCPGATE_SHUTDOWN_TIMEOUT,default=15s"`
}

// Session tunes the lifecycle manager, admission and the sweep.
type Session struct {
	Timeout          time.Duration `env:"SESSION_TIMEOUT,default=60m"`
	RecentWindow     time.Duration `env:"SESSION_RECENT_WINDOW,default=15m"`
	Retention        time.Duration `env:"SESSION_RETENTION,default=24h"`
	SweepInterval    time.Duration `env:"SESSION_SWEEP_INTERVAL,default=15m"`
	SweepTimeout     time.Duration `env:"SESSION_SWEEP_TIMEOUT,default=5m"`
	MaxSessions      int           `env:"SESSION_MAX_TOTAL,default=200"`
	MaxPerCredential int           `env:"SESSION_MAX_PER_CREDENTIAL,default=10"`
	// ActivityWriteInterval of zero persists every bump.
	ActivityWriteInterval time.Duration `env:"SESSION_ACTIVITY_WRITE_INTERVAL,default=0s"`
	ActivityWorkers       int           `env:"SESSION_ACTIVITY_WORKERS,default=4"`
	ActivityQueueSize     int           `env:"SESSION_ACTIVITY_QUEUE_SIZE,default=1024"`
	Cache                 string        `env:"SESSION_CACHE,default=memory"`
}

type Database struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS,default=25"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS,default=5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME,default=5m"`
}

type Redis struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE,default=10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS,default=2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT,default=5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT,default=3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT,default=3s"`
}

type Kafka struct {
	Brokers         string        `env:"KAFKA_BROKERS"`
	AuditTopic      string        `env:"KAFKA_AUDIT_TOPIC,default=mcp.session.audit"`
	Acks            string        `env:"KAFKA_ACKS,default=all"`
	Retries         int           `env:"KAFKA_RETRIES,default=3"`
	DeliveryTimeout time.Duration `env:"KAFKA_DELIVERY_TIMEOUT,default=30s"`
}

type Audit struct {
	Sink       string `env:"AUDIT_SINK,default=memory"`
	BufferSize int    `env:"AUDIT_BUFFER_SIZE,default=1024"`
	Workers    int    `env:"AUDIT_WORKERS,default=2"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL,default=info"`
	Format string `env:"LOG_FORMAT,default=json"`
}

// Load decodes the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the process cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Session.Timeout <= 0 {
		errs = append(errs, errors.New("SESSION_TIMEOUT must be positive"))
	}
	if c.Session.MaxSessions <= 0 || c.Session.MaxPerCredential <= 0 {
		errs = append(errs, errors.New("session ceilings must be positive"))
	}
	if c.Session.ActivityWriteInterval < 0 || c.Session.ActivityWriteInterval >= c.Session.Timeout {
		errs = append(errs, errors.New("SESSION_ACTIVITY_WRITE_INTERVAL must be in [0, SESSION_TIMEOUT)"))
	}
	switch c.Session.Cache {
	case CacheMemory:
	case CacheRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("SESSION_CACHE=redis requires REDIS_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown SESSION_CACHE %q", c.Session.Cache))
	}
	switch c.Audit.Sink {
	case AuditSinkMemory:
	case AuditSinkPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("AUDIT_SINK=postgres requires DATABASE_URL"))
		}
	case AuditSinkKafka:
		if c.Kafka.Brokers == "" {
			errs = append(errs, errors.New("AUDIT_SINK=kafka requires KAFKA_BROKERS"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AUDIT_SINK %q", c.Audit.Sink))
	}
	if _, err := c.Server.Proxies(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Proxies parses MCPGATE_TRUSTED_PROXIES, a comma separated CIDR list.
func (s Server) Proxies() ([]netip.Prefix, error) {
	if strings.TrimSpace(s.TrustedProxies) == "" {
		return nil, nil
	}
	var prefixes []netip.Prefix
	for raw := range strings.SplitSeq(s.TrustedProxies, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
		}
		prefixes = append(prefixes, prefix)
	}
	return prefixes, nil
}
