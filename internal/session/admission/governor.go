// Package admission enforces concurrent-session ceilings at creation time.
package admission

import (
	"context"
	"fmt"
	"log/slog"

	id "mcpgate/pkg/domain"
	dErrors "mcpgate/pkg/domain-errors"
)

const (
	DefaultMaxSessions              = 200
	DefaultMaxSessionsPerCredential = 10
)

// Counter reads active-session counts from the durable store.
type Counter interface {
	CountActive(ctx context.Context) (int, error)
	CountActiveByCredential(ctx context.Context, credentialID id.CredentialID) (int, error)
}

// Governor admits or rejects new sessions against a global and a
// per-credential ceiling.
//
// Counts come from the store, never the cache, which can undercount after a
// restart. The check and the later insert are not atomic: two concurrent
// creations at the boundary may both pass. The ceilings are soft limits with
// operational headroom, and serializing every creation behind a lock would
// cost more than a transient overshoot.
type Governor struct {
	counter          Counter
	maxGlobal        int
	maxPerCredential int
	logger           *slog.Logger
}

// Option configures a Governor.
type Option func(*Governor)

func WithMaxSessions(n int) Option {
	return func(g *Governor) {
		if n > 0 {
			g.maxGlobal = n
		}
	}
}

func WithMaxSessionsPerCredential(n int) Option {
	return func(g *Governor) {
		if n > 0 {
			g.maxPerCredential = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Governor) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func New(counter Counter, opts ...Option) *Governor {
	g := &Governor{
		counter:          counter,
		maxGlobal:        DefaultMaxSessions,
		maxPerCredential: DefaultMaxSessionsPerCredential,
		logger:           slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Ceiling returns the global session ceiling.
func (g *Governor) Ceiling() int { return g.maxGlobal }

// CredentialCeiling returns the per-credential session ceiling.
func (g *Governor) CredentialCeiling() int { return g.maxPerCredential }

// Admit returns nil when a new session for credentialID may be created.
// Rejections carry MAX_SESSIONS_EXCEEDED or CREDENTIAL_SESSION_LIMIT.
func (g *Governor) Admit(ctx context.Context, credentialID id.CredentialID) error {
	total, err := g.counter.CountActive(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count active sessions")
	}
	if total >= g.maxGlobal {
		g.logger.WarnContext(ctx, "session admission rejected",
			"reason", "global_ceiling",
			"active", total,
			"ceiling", g.maxGlobal,
		)
		return dErrors.New(dErrors.CodeMaxSessionsExceeded,
			fmt.Sprintf("maximum concurrent sessions (%d) reached", g.maxGlobal))
	}

	perCredential, err := g.counter.CountActiveByCredential(ctx, credentialID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count credential sessions")
	}
	if perCredential >= g.maxPerCredential {
		g.logger.InfoContext(ctx, "session admission rejected",
			"reason", "credential_ceiling",
			"credential_id", credentialID,
			"active", perCredential,
			"ceiling", g.maxPerCredential,
		)
		return dErrors.New(dErrors.CodeCredentialSessionLimit,
			fmt.Sprintf("credential has reached its limit of %d concurrent sessions", g.maxPerCredential))
	}
	return nil
}
