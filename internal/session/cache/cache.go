// Package cache holds the activity hint layered over the session store.
//
// Entries are advisory. A miss, a stale entry or a backend error always falls
// back to the store, and any entry may be dropped at any time.
package cache

import (
	"context"
	"time"

	"mcpgate/internal/session/models"
	id "mcpgate/pkg/domain"
	psync "mcpgate/pkg/platform/sync"
)

// Entry is the cached view of a session: its activity clock plus the
// identity fields needed to answer Validate without a store read.
type Entry struct {
	SessionID      id.SessionID
	CredentialID   id.CredentialID
	PrincipalID    id.PrincipalID
	ConnectionType models.ConnectionType
	CreatedAt      time.Time
	LastActivity   time.Time
	// PersistedAt is the latest activity value known to be in the store.
	PersistedAt time.Time
}

// EntryFromSession seeds an entry from a stored record.
func EntryFromSession(s *models.Session) *Entry {
	return &Entry{
		SessionID:      s.ID,
		CredentialID:   s.CredentialID,
		PrincipalID:    s.PrincipalID,
		ConnectionType: s.ConnectionType,
		CreatedAt:      s.CreatedAt,
		LastActivity:   s.LastActivity,
		PersistedAt:    s.LastActivity,
	}
}

// FreshAt reports whether the entry was active at or after cutoff.
func (e *Entry) FreshAt(cutoff time.Time) bool {
	return !e.LastActivity.Before(cutoff)
}

func (e *Entry) Snapshot() *models.Snapshot {
	return &models.Snapshot{
		SessionID:      e.SessionID,
		CredentialID:   e.CredentialID,
		PrincipalID:    e.PrincipalID,
		ConnectionType: e.ConnectionType,
		CreatedAt:      e.CreatedAt,
		LastActivity:   e.LastActivity,
	}
}

// MemoryCache is the in-process activity cache. Keys spread over 32 locked
// shards so hot-path reads of different sessions do not contend.
type MemoryCache struct {
	entries *psync.ShardedMap[id.SessionID, Entry]
}

func NewMemory() *MemoryCache {
	return &MemoryCache{entries: psync.NewShardedMap[id.SessionID, Entry]()}
}

func (c *MemoryCache) Get(_ context.Context, sessionID id.SessionID) (*Entry, bool) {
	e, ok := c.entries.Load(sessionID)
	if !ok {
		return nil, false
	}
	return &e, true
}

func (c *MemoryCache) Put(_ context.Context, entry *Entry) {
	if entry == nil {
		return
	}
	c.entries.Store(entry.SessionID, *entry)
}

// Touch moves the entry's activity clock forward and returns the result.
// Older timestamps leave the entry unchanged.
func (c *MemoryCache) Touch(_ context.Context, sessionID id.SessionID, at time.Time) (*Entry, bool) {
	var updated *Entry
	c.entries.Update(sessionID, func(current Entry, ok bool) (Entry, bool) {
		if !ok {
			return current, false
		}
		if at.After(current.LastActivity) {
			current.LastActivity = at
		}
		e := current
		updated = &e
		return current, true
	})
	return updated, updated != nil
}

// MarkPersisted records that the store holds activity up to at.
func (c *MemoryCache) MarkPersisted(_ context.Context, sessionID id.SessionID, at time.Time) {
	c.entries.Update(sessionID, func(current Entry, ok bool) (Entry, bool) {
		if !ok {
			return current, false
		}
		if at.After(current.PersistedAt) {
			current.PersistedAt = at
		}
		return current, true
	})
}

func (c *MemoryCache) Remove(_ context.Context, sessionID id.SessionID) bool {
	return c.entries.Delete(sessionID)
}

// PruneStale removes entries last active before cutoff.
func (c *MemoryCache) PruneStale(_ context.Context, cutoff time.Time) int {
	return c.entries.DeleteIf(func(_ id.SessionID, e Entry) bool {
		return !e.FreshAt(cutoff)
	})
}

// IDs lists cached session ids. Concurrent writers may add or remove entries
// while the list is built.
func (c *MemoryCache) IDs(_ context.Context) []id.SessionID {
	ids := make([]id.SessionID, 0, c.entries.Len())
	c.entries.Range(func(key id.SessionID, _ Entry) bool {
		ids = append(ids, key)
		return true
	})
	return ids
}

func (c *MemoryCache) Len(_ context.Context) int {
	return c.entries.Len()
}
