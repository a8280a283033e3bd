package store

import (
	"context"
	"fmt"
	"time"

	"mcpgate/internal/session/models"
	id "mcpgate/pkg/domain"
	"mcpgate/pkg/platform/sentinel"
	psync "mcpgate/pkg/platform/sync"
)

// Error Contract:
// - ErrNotFound when no record (or no active record, for state-conditional calls) matches
// - ErrConflict when Save sees an identifier that was already issued
// - wrapped errors for infrastructure failures (Postgres only)

// InMemoryStore keeps sessions in a sharded map for tests and single-node dev.
// Records are stored by value and copied on the way in and out, so callers
// never share mutable state with the store.
type InMemoryStore struct {
	sessions *psync.ShardedMap[id.SessionID, models.Session]
	// issued remembers every identifier ever saved, including purged ones.
	issued *psync.ShardedMap[id.SessionID, struct{}]
}

// NewInMemory constructs an empty in-memory session store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		sessions: psync.NewShardedMap[id.SessionID, models.Session](),
		issued:   psync.NewShardedMap[id.SessionID, struct{}](),
	}
}

func (s *InMemoryStore) Save(_ context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is required: %w", sentinel.ErrInvalidInput)
	}
	conflict := false
	s.issued.Update(session.ID, func(_ struct{}, ok bool) (struct{}, bool) {
		conflict = ok
		return struct{}{}, true
	})
	if conflict {
		return fmt.Errorf("session id already issued: %w", sentinel.ErrConflict)
	}
	s.sessions.Store(session.ID, *session)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, sessionID id.SessionID) (*models.Session, error) {
	session, ok := s.sessions.Load(sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
	}
	return &session, nil
}

func (s *InMemoryStore) FindActiveByID(_ context.Context, sessionID id.SessionID, cutoff time.Time) (*models.Session, error) {
	session, ok := s.sessions.Load(sessionID)
	if !ok || !session.IsLive(cutoff) {
		return nil, fmt.Errorf("active session not found: %w", sentinel.ErrNotFound)
	}
	return &session, nil
}

func (s *InMemoryStore) ExistsByID(_ context.Context, sessionID id.SessionID) (bool, error) {
	_, ok := s.issued.Load(sessionID)
	return ok, nil
}

func (s *InMemoryStore) FindActiveByCredential(_ context.Context, credentialID id.CredentialID) ([]*models.Session, error) {
	return s.collect(func(sess *models.Session) bool {
		return sess.IsActive && sess.CredentialID == credentialID
	}), nil
}

// FindExpiredBefore returns active sessions whose last activity is older than cutoff.
func (s *InMemoryStore) FindExpiredBefore(_ context.Context, cutoff time.Time) ([]*models.Session, error) {
	return s.collect(func(sess *models.Session) bool {
		return sess.IsActive && sess.LastActivity.Before(cutoff)
	}), nil
}

func (s *InMemoryStore) CountActive(_ context.Context) (int, error) {
	return s.count(func(sess *models.Session) bool { return sess.IsActive }), nil
}

func (s *InMemoryStore) CountActiveByCredential(_ context.Context, credentialID id.CredentialID) (int, error) {
	return s.count(func(sess *models.Session) bool {
		return sess.IsActive && sess.CredentialID == credentialID
	}), nil
}

func (s *InMemoryStore) CountActiveSince(_ context.Context, since time.Time) (int, error) {
	return s.count(func(sess *models.Session) bool {
		return sess.IsActive && !sess.LastActivity.Before(since)
	}), nil
}

func (s *InMemoryStore) CountActiveByConnectionType(_ context.Context) (map[models.ConnectionType]int, error) {
	counts := make(map[models.ConnectionType]int, len(models.ConnectionTypes))
	s.sessions.Range(func(_ id.SessionID, sess models.Session) bool {
		if sess.IsActive {
			counts[sess.ConnectionType]++
		}
		return true
	})
	return counts, nil
}

// Touch moves last activity forward on an active session. It never moves the
// clock backwards and never reactivates an inactive session.
func (s *InMemoryStore) Touch(_ context.Context, sessionID id.SessionID, at time.Time) error {
	found := false
	s.sessions.Update(sessionID, func(current models.Session, ok bool) (models.Session, bool) {
		if !ok {
			return current, false
		}
		if current.IsActive {
			found = true
			current.RecordActivity(at)
		}
		return current, true
	})
	if !found {
		return fmt.Errorf("active session not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

// Deactivate marks an active session inactive and returns the updated record.
func (s *InMemoryStore) Deactivate(_ context.Context, sessionID id.SessionID, reason string, at time.Time) (*models.Session, error) {
	var updated *models.Session
	s.sessions.Update(sessionID, func(current models.Session, ok bool) (models.Session, bool) {
		if !ok {
			return current, false
		}
		if current.Deactivate(reason, at) {
			snapshot := current
			updated = &snapshot
		}
		return current, true
	})
	if updated == nil {
		return nil, fmt.Errorf("active session not found: %w", sentinel.ErrNotFound)
	}
	return updated, nil
}

// Expire deactivates a session only while it is active and idle since before cutoff.
func (s *InMemoryStore) Expire(_ context.Context, sessionID id.SessionID, cutoff, at time.Time) (*models.Session, error) {
	var updated *models.Session
	s.sessions.Update(sessionID, func(current models.Session, ok bool) (models.Session, bool) {
		if !ok {
			return current, false
		}
		if current.LastActivity.Before(cutoff) && current.Deactivate(models.NoteExpired, at) {
			snapshot := current
			updated = &snapshot
		}
		return current, true
	})
	if updated == nil {
		return nil, fmt.Errorf("idle session not found: %w", sentinel.ErrNotFound)
	}
	return updated, nil
}

func (s *InMemoryStore) DeactivateByCredential(_ context.Context, credentialID id.CredentialID, reason string, at time.Time) ([]id.SessionID, error) {
	var candidates []id.SessionID
	s.sessions.Range(func(key id.SessionID, sess models.Session) bool {
		if sess.IsActive && sess.CredentialID == credentialID {
			candidates = append(candidates, key)
		}
		return true
	})

	deactivated := make([]id.SessionID, 0, len(candidates))
	for _, sessionID := range candidates {
		s.sessions.Update(sessionID, func(current models.Session, ok bool) (models.Session, bool) {
			if !ok {
				return current, false
			}
			if current.CredentialID == credentialID && current.Deactivate(reason, at) {
				deactivated = append(deactivated, sessionID)
			}
			return current, true
		})
	}
	return deactivated, nil
}

// DeleteInactiveBefore hard-deletes inactive sessions last seen before cutoff.
// Identifiers stay reserved.
func (s *InMemoryStore) DeleteInactiveBefore(_ context.Context, cutoff time.Time) (int, error) {
	return s.sessions.DeleteIf(func(_ id.SessionID, sess models.Session) bool {
		return !sess.IsActive && sess.LastActivity.Before(cutoff)
	}), nil
}

// FilterActive returns the subset of ids that refer to active sessions.
func (s *InMemoryStore) FilterActive(_ context.Context, ids []id.SessionID) ([]id.SessionID, error) {
	active := make([]id.SessionID, 0, len(ids))
	for _, sessionID := range ids {
		if sess, ok := s.sessions.Load(sessionID); ok && sess.IsActive {
			active = append(active, sessionID)
		}
	}
	return active, nil
}

func (s *InMemoryStore) collect(match func(*models.Session) bool) []*models.Session {
	result := make([]*models.Session, 0)
	s.sessions.Range(func(_ id.SessionID, sess models.Session) bool {
		if match(&sess) {
			found := sess
			result = append(result, &found)
		}
		return true
	})
	return result
}

func (s *InMemoryStore) count(match func(*models.Session) bool) int {
	n := 0
	s.sessions.Range(func(_ id.SessionID, sess models.Session) bool {
		if match(&sess) {
			n++
		}
		return true
	})
	return n
}
