package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 60*time.Minute, cfg.Session.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Session.Retention)
	assert.Equal(t, 15*time.Minute, cfg.Session.SweepInterval)
	assert.Equal(t, 5*time.Minute, cfg.Session.SweepTimeout)
	assert.Equal(t, 200, cfg.Session.MaxSessions)
	assert.Equal(t, 10, cfg.Session.MaxPerCredential)
	assert.Zero(t, cfg.Session.ActivityWriteInterval)
	assert.Equal(t, CacheMemory, cfg.Session.Cache)
	assert.Equal(t, AuditSinkMemory, cfg.Audit.Sink)
	assert.Equal(t, "mcp.session.audit", cfg.Kafka.AuditTopic)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_TIMEOUT", "30m")
	t.Setenv("SESSION_MAX_PER_CREDENTIAL", "3")
	t.Setenv("SESSION_ACTIVITY_WRITE_INTERVAL", "30s")
	t.Setenv("MCPGATE_TRUSTED_PROXIES", "10.0.0.0/8, 192.168.0.0/16")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Session.Timeout)
	assert.Equal(t, 3, cfg.Session.MaxPerCredential)
	assert.Equal(t, 30*time.Second, cfg.Session.ActivityWriteInterval)
	proxies, err := cfg.Server.Proxies()
	require.NoError(t, err)
	assert.Len(t, proxies, 2)
}

func TestLoadRejectsInconsistentConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "redis cache without url", env: map[string]string{"SESSION_CACHE": "redis"}},
		{name: "postgres audit without db", env: map[string]string{"AUDIT_SINK": "postgres"}},
		{name: "kafka audit without brokers", env: map[string]string{"AUDIT_SINK": "kafka"}},
		{name: "unknown cache", env: map[string]string{"SESSION_CACHE": "memcached"}},
		{name: "zero ceiling", env: map[string]string{"SESSION_MAX_TOTAL": "0"}},
		{name: "throttle past timeout", env: map[string]string{"SESSION_ACTIVITY_WRITE_INTERVAL": "2h"}},
		{name: "bad proxy", env: map[string]string{"MCPGATE_TRUSTED_PROXIES": "10.0.0.1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
