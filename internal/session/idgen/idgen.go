// Package idgen issues session identifiers that are unique against the store.
package idgen

import (
	"context"
	"log/slog"

	"mcpgate/internal/session/metrics"
	id "mcpgate/pkg/domain"
	dErrors "mcpgate/pkg/domain-errors"
)

// DefaultMaxAttempts bounds the collision retry loop.
const DefaultMaxAttempts = 10

// ExistenceChecker reports whether an identifier was ever issued.
type ExistenceChecker interface {
	ExistsByID(ctx context.Context, sessionID id.SessionID) (bool, error)
}

// Generator produces random "mcp_<uuid>" identifiers and retries on collision.
// A collision at 122 bits of entropy means something is badly wrong (a broken
// random source, a replayed store), so exhausting the attempts is loud.
type Generator struct {
	checker     ExistenceChecker
	maxAttempts int
	newID       func() (id.SessionID, error)
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// Option configures a Generator.
type Option func(*Generator)

func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

// WithSource replaces the random source. Used by tests to force collisions.
func WithSource(fn func() (id.SessionID, error)) Option {
	return func(g *Generator) {
		if fn != nil {
			g.newID = fn
		}
	}
}

func New(checker ExistenceChecker, opts ...Option) *Generator {
	g := &Generator{
		checker:     checker,
		maxAttempts: DefaultMaxAttempts,
		newID:       id.NewSessionID,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns an identifier the store has never seen.
func (g *Generator) Generate(ctx context.Context) (id.SessionID, error) {
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeTimeout, "session id generation cancelled")
		}
		candidate, err := g.newID()
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to read random source")
		}
		exists, err := g.checker.ExistsByID(ctx, candidate)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check session id")
		}
		if !exists {
			return candidate, nil
		}
		if g.metrics != nil {
			g.metrics.IncrementIDCollision()
		}
		g.logger.WarnContext(ctx, "session id collision", "attempt", attempt)
	}

	if g.metrics != nil {
		g.metrics.IncrementIDExhausted()
	}
	g.logger.ErrorContext(ctx, "session id generation exhausted all attempts",
		"attempts", g.maxAttempts,
		"alert", true,
	)
	return "", dErrors.New(dErrors.CodeInternal, "unable to allocate a unique session id")
}
