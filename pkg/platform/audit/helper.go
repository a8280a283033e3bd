package audit

import (
	"context"
	"log/slog"
	"maps"

	id "mcpgate/pkg/domain"
	"mcpgate/pkg/requestcontext"
)

// Emitter is the interface for audit record emission.
// Satisfied by publisher.Publisher and every Store.
type Emitter interface {
	Emit(ctx context.Context, record Record) error
}

// Store persists audit records. Append must never modify existing records.
type Store interface {
	Append(ctx context.Context, record Record) error
}

// Logger writes lifecycle transitions to the structured log and emits them
// to the audit sink. Emission is best-effort: failures are logged and never
// returned, so the operation being audited cannot fail because of the trail.
type Logger struct {
	textLogger *slog.Logger
	emitter    Emitter
}

// NewLogger creates an audit logger. emitter may be nil (log only).
func NewLogger(textLogger *slog.Logger, emitter Emitter) *Logger {
	return &Logger{
		textLogger: textLogger,
		emitter:    emitter,
	}
}

// Log fills in the id, request id and operator, then logs and emits record.
func (l *Logger) Log(ctx context.Context, record Record) {
	if record.ID == "" {
		record.ID = NewRecordID()
	}
	if record.RequestID == "" {
		record.RequestID = requestcontext.RequestID(ctx)
	}
	if actor := requestcontext.ActorID(ctx); actor != "" {
		record.Context = maps.Clone(record.Context)
		if record.Context == nil {
			record.Context = make(map[string]any, 1)
		}
		record.Context["actor_id"] = actor
	}
	l.logToText(ctx, record)
	l.emit(ctx, record)
}

func (l *Logger) logToText(ctx context.Context, record Record) {
	if l.textLogger == nil {
		return
	}
	args := []any{
		"event", string(record.Action),
		"log_type", "audit",
		"category", string(record.Action.Category()),
		"session_id", record.SessionID,
		"credential_id", record.CredentialID,
		"success", record.Success,
	}
	if record.Reason != "" {
		args = append(args, "reason", record.Reason)
	}
	if record.ErrorCode != "" {
		args = append(args, "error_code", record.ErrorCode)
	}
	if record.RequestID != "" {
		args = append(args, "request_id", record.RequestID)
	}
	l.textLogger.InfoContext(ctx, string(record.Action), args...)
}

func (l *Logger) emit(ctx context.Context, record Record) {
	if l.emitter == nil {
		return
	}
	defer func() {
		// A misbehaving sink must not take the lifecycle operation down with it.
		if r := recover(); r != nil && l.textLogger != nil {
			l.textLogger.ErrorContext(ctx, "audit emitter panicked", "panic", r, "event", record.Action)
		}
	}()
	if err := l.emitter.Emit(ctx, record); err != nil && l.textLogger != nil {
		l.textLogger.ErrorContext(ctx, "failed to emit audit event",
			"error", err,
			"event", record.Action,
			"session_id", record.SessionID,
		)
	}
}

// Reader exposes the trail to operators.
type Reader interface {
	ListBySession(ctx context.Context, sessionID id.SessionID) ([]Record, error)
	ListRecent(ctx context.Context, limit int) ([]Record, error)
}
