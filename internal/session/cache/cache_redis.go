package cache

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"mcpgate/internal/session/models"
	id "mcpgate/pkg/domain"
)

const (
	entryKeyPrefix = "mcp:session:activity:"
	// activityIndexKey is a sorted set of session ids scored by last activity
	// in unix microseconds. It backs pruning, listing and Len.
	activityIndexKey = "mcp:session:activity-index"

	fieldCredential = "credential_id"
	fieldPrincipal  = "principal_id"
	fieldConnection = "connection_type"
	fieldCreated    = "created_at"
	fieldLast       = "last_activity"
	fieldPersisted  = "persisted_at"
)

// touchScript moves last_activity forward only and refreshes the TTL.
// Returns 0 when the entry is gone.
var touchScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'last_activity')
if not cur then
  return 0
end
if tonumber(ARGV[1]) > tonumber(cur) then
  redis.call('HSET', KEYS[1], 'last_activity', ARGV[1])
  redis.call('ZADD', KEYS[2], ARGV[1], ARGV[2])
end
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// markPersistedScript moves persisted_at forward on an existing entry.
var markPersistedScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'persisted_at')
if not cur then
  return 0
end
if tonumber(ARGV[1]) > tonumber(cur) then
  redis.call('HSET', KEYS[1], 'persisted_at', ARGV[1])
end
return 1
`)

// RedisCache shares the activity hint between gateway replicas. Backend
// errors are logged and reported as misses, which sends callers to the store.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// RedisOption configures a RedisCache.
type RedisOption func(*RedisCache)

func WithLogger(logger *slog.Logger) RedisOption {
	return func(c *RedisCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewRedis builds a Redis-backed cache. ttl bounds how long an untouched
// entry survives in Redis; it should be at least the session timeout.
func NewRedis(client redis.UniversalClient, ttl time.Duration, opts ...RedisOption) *RedisCache {
	c := &RedisCache{
		client: client,
		ttl:    ttl,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func entryKey(sessionID id.SessionID) string {
	return entryKeyPrefix + sessionID.String()
}

func (c *RedisCache) Get(ctx context.Context, sessionID id.SessionID) (*Entry, bool) {
	fields, err := c.client.HGetAll(ctx, entryKey(sessionID)).Result()
	if err != nil {
		c.warn(ctx, "get", sessionID, err)
		return nil, false
	}
	if len(fields) == 0 {
		return nil, false
	}
	entry, err := entryFromFields(sessionID, fields)
	if err != nil {
		c.warn(ctx, "decode", sessionID, err)
		return nil, false
	}
	return entry, true
}

func (c *RedisCache) Put(ctx context.Context, entry *Entry) {
	if entry == nil {
		return
	}
	key := entryKey(entry.SessionID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldCredential, entry.CredentialID.String(),
			fieldPrincipal, entry.PrincipalID.String(),
			fieldConnection, entry.ConnectionType.String(),
			fieldCreated, micros(entry.CreatedAt),
			fieldLast, micros(entry.LastActivity),
			fieldPersisted, micros(entry.PersistedAt),
		)
		pipe.PExpire(ctx, key, c.ttl)
		pipe.ZAdd(ctx, activityIndexKey, redis.Z{Score: float64(entry.LastActivity.UnixMicro()), Member: entry.SessionID.String()})
		return nil
	})
	if err != nil {
		c.warn(ctx, "put", entry.SessionID, err)
	}
}

func (c *RedisCache) Touch(ctx context.Context, sessionID id.SessionID, at time.Time) (*Entry, bool) {
	found, err := touchScript.Run(ctx, c.client,
		[]string{entryKey(sessionID), activityIndexKey},
		micros(at), sessionID.String(), c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		c.warn(ctx, "touch", sessionID, err)
		return nil, false
	}
	if found == 0 {
		return nil, false
	}
	return c.Get(ctx, sessionID)
}

func (c *RedisCache) MarkPersisted(ctx context.Context, sessionID id.SessionID, at time.Time) {
	err := markPersistedScript.Run(ctx, c.client, []string{entryKey(sessionID)}, micros(at)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.warn(ctx, "mark_persisted", sessionID, err)
	}
}

func (c *RedisCache) Remove(ctx context.Context, sessionID id.SessionID) bool {
	var deleted *redis.IntCmd
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, entryKey(sessionID))
		pipe.ZRem(ctx, activityIndexKey, sessionID.String())
		return nil
	})
	if err != nil {
		c.warn(ctx, "remove", sessionID, err)
		return false
	}
	return deleted.Val() > 0
}

func (c *RedisCache) PruneStale(ctx context.Context, cutoff time.Time) int {
	maxScore := "(" + micros(cutoff)
	members, err := c.client.ZRangeByScore(ctx, activityIndexKey, &redis.ZRangeBy{Min: "-inf", Max: maxScore}).Result()
	if err != nil {
		c.warn(ctx, "prune", "", err)
		return 0
	}
	if len(members) == 0 {
		return 0
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = entryKeyPrefix + m
	}
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.ZRem(ctx, activityIndexKey, toAny(members)...)
		return nil
	})
	if err != nil {
		c.warn(ctx, "prune", "", err)
		return 0
	}
	return len(members)
}

func (c *RedisCache) IDs(ctx context.Context) []id.SessionID {
	members, err := c.client.ZRange(ctx, activityIndexKey, 0, -1).Result()
	if err != nil {
		c.warn(ctx, "list", "", err)
		return nil
	}
	ids := make([]id.SessionID, len(members))
	for i, m := range members {
		ids[i] = id.SessionID(m)
	}
	return ids
}

func (c *RedisCache) Len(ctx context.Context) int {
	n, err := c.client.ZCard(ctx, activityIndexKey).Result()
	if err != nil {
		c.warn(ctx, "len", "", err)
		return 0
	}
	return int(n)
}

func (c *RedisCache) warn(ctx context.Context, op string, sessionID id.SessionID, err error) {
	c.logger.WarnContext(ctx, "session cache operation failed",
		"op", op,
		"session_id", sessionID,
		"error", err,
	)
}

func entryFromFields(sessionID id.SessionID, fields map[string]string) (*Entry, error) {
	created, err := parseMicros(fields[fieldCreated])
	if err != nil {
		return nil, err
	}
	last, err := parseMicros(fields[fieldLast])
	if err != nil {
		return nil, err
	}
	persisted, err := parseMicros(fields[fieldPersisted])
	if err != nil {
		return nil, err
	}
	return &Entry{
		SessionID:      sessionID,
		CredentialID:   id.CredentialID(fields[fieldCredential]),
		PrincipalID:    id.PrincipalID(fields[fieldPrincipal]),
		ConnectionType: models.ConnectionType(fields[fieldConnection]),
		CreatedAt:      created,
		LastActivity:   last,
		PersistedAt:    persisted,
	}, nil
}

func micros(t time.Time) string {
	return strconv.FormatInt(t.UnixMicro(), 10)
}

func parseMicros(s string) (time.Time, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMicro(v).UTC(), nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
