package service

import "time"

const (
	DefaultSessionTimeout = 60 * time.Minute
	DefaultRecentWindow   = 15 * time.Minute
	defaultSaveAttempts   = 10
)

// Config holds the lifecycle tunables.
type Config struct {
	// SessionTimeout is the idle time after which a session lapses.
	SessionTimeout time.Duration
	// RecentWindow bounds the "recently active" count in Stats.
	RecentWindow time.Duration
	// ActivityWriteInterval is the minimum gap between persisted activity
	// writes for one session. Zero persists every bump.
	ActivityWriteInterval time.Duration
	// ActivityWorkers and ActivityQueueSize size the async write pool.
	ActivityWorkers   int
	ActivityQueueSize int
	// SaveAttempts bounds regeneration when Save reports an id conflict.
	SaveAttempts int
}

func DefaultConfig() *Config {
	return &Config{
		SessionTimeout:    DefaultSessionTimeout,
		RecentWindow:      DefaultRecentWindow,
		ActivityWorkers:   defaultActivityWorkers,
		ActivityQueueSize: defaultActivityQueueSize,
		SaveAttempts:      defaultSaveAttempts,
	}
}

func (c *Config) withDefaults() *Config {
	out := DefaultConfig()
	if c == nil {
		return out
	}
	if c.SessionTimeout > 0 {
		out.SessionTimeout = c.SessionTimeout
	}
	if c.RecentWindow > 0 {
		out.RecentWindow = c.RecentWindow
	}
	if c.ActivityWriteInterval > 0 {
		out.ActivityWriteInterval = c.ActivityWriteInterval
	}
	if c.ActivityWorkers > 0 {
		out.ActivityWorkers = c.ActivityWorkers
	}
	if c.ActivityQueueSize > 0 {
		out.ActivityQueueSize = c.ActivityQueueSize
	}
	if c.SaveAttempts > 0 {
		out.SaveAttempts = c.SaveAttempts
	}
	return out
}
