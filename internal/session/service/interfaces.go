package service

import (
	"context"
	"time"

	"mcpgate/internal/session/cache"
	"mcpgate/internal/session/models"
	id "mcpgate/pkg/domain"
	"mcpgate/pkg/platform/audit"
)

// Repository is the durable session store, the only source of truth.
// Error Contract: lookups and state-conditional writes return sentinel.ErrNotFound
// when nothing matches; Save returns sentinel.ErrConflict for an issued id.
type Repository interface {
	Save(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error)
	FindActiveByID(ctx context.Context, sessionID id.SessionID, cutoff time.Time) (*models.Session, error)
	ExistsByID(ctx context.Context, sessionID id.SessionID) (bool, error)
	FindActiveByCredential(ctx context.Context, credentialID id.CredentialID) ([]*models.Session, error)
	FindExpiredBefore(ctx context.Context, cutoff time.Time) ([]*models.Session, error)
	CountActive(ctx context.Context) (int, error)
	CountActiveByCredential(ctx context.Context, credentialID id.CredentialID) (int, error)
	CountActiveSince(ctx context.Context, since time.Time) (int, error)
	CountActiveByConnectionType(ctx context.Context) (map[models.ConnectionType]int, error)
	Touch(ctx context.Context, sessionID id.SessionID, at time.Time) error
	Deactivate(ctx context.Context, sessionID id.SessionID, reason string, at time.Time) (*models.Session, error)
	Expire(ctx context.Context, sessionID id.SessionID, cutoff, at time.Time) (*models.Session, error)
	DeactivateByCredential(ctx context.Context, credentialID id.CredentialID, reason string, at time.Time) ([]id.SessionID, error)
	DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int, error)
	FilterActive(ctx context.Context, ids []id.SessionID) ([]id.SessionID, error)
}

// ActivityCache is the advisory activity hint. Implementations never return
// errors; a backend failure looks like a miss.
type ActivityCache interface {
	Get(ctx context.Context, sessionID id.SessionID) (*cache.Entry, bool)
	Put(ctx context.Context, entry *cache.Entry)
	Touch(ctx context.Context, sessionID id.SessionID, at time.Time) (*cache.Entry, bool)
	MarkPersisted(ctx context.Context, sessionID id.SessionID, at time.Time)
	Remove(ctx context.Context, sessionID id.SessionID) bool
	PruneStale(ctx context.Context, cutoff time.Time) int
	IDs(ctx context.Context) []id.SessionID
	Len(ctx context.Context) int
}

type IDGenerator interface {
	Generate(ctx context.Context) (id.SessionID, error)
}

// Admitter gates creation on the configured ceilings.
type Admitter interface {
	Admit(ctx context.Context, credentialID id.CredentialID) error
	Ceiling() int
}

type AuditPublisher interface {
	Emit(ctx context.Context, record audit.Record) error
}
