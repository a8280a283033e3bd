package memory

import (
	"context"
	"slices"
	"sync"

	id "mcpgate/pkg/domain"
	audit "mcpgate/pkg/platform/audit"
)

// InMemoryStore keeps audit records in process for tests and dev.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []audit.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make([]audit.Record, 0)}
}

func (s *InMemoryStore) Append(_ context.Context, record audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// Emit lets the store stand in for a publisher.
func (s *InMemoryStore) Emit(ctx context.Context, record audit.Record) error {
	return s.Append(ctx, record)
}

func (s *InMemoryStore) ListBySession(_ context.Context, sessionID id.SessionID) ([]audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Record, 0)
	for _, r := range s.records {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListRecent returns up to limit records, newest first.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := slices.Clone(s.records)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ListByAction returns every record with the given action, oldest first.
func (s *InMemoryStore) ListByAction(action audit.AuditEvent) []audit.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Record, 0)
	for _, r := range s.records {
		if r.Action == action {
			out = append(out, r)
		}
	}
	return out
}

func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
