package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	id "mcpgate/pkg/domain"
	audit "mcpgate/pkg/platform/audit"
)

// Store implements audit.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts a record. Replays of the same record id are ignored.
func (s *Store) Append(ctx context.Context, record audit.Record) error {
	if record.ID == "" {
		record.ID = audit.NewRecordID()
	}
	var payload []byte
	if len(record.Context) > 0 {
		var err error
		payload, err = json.Marshal(record.Context)
		if err != nil {
			return fmt.Errorf("marshal audit context: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (
			id, action, session_id, credential_id, principal_id, success,
			error_code, error_message, reason, request_id, context, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING`,
		record.ID,
		string(record.Action),
		record.SessionID.String(),
		record.CredentialID.String(),
		record.PrincipalID.String(),
		record.Success,
		record.ErrorCode,
		record.ErrorMessage,
		record.Reason,
		record.RequestID,
		payload,
		record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) Emit(ctx context.Context, record audit.Record) error {
	return s.Append(ctx, record)
}

func (s *Store) ListBySession(ctx context.Context, sessionID id.SessionID) ([]audit.Record, error) {
	return s.list(ctx, `
		SELECT id, action, session_id, credential_id, principal_id, success,
			error_code, error_message, reason, request_id, context, created_at
		FROM audit_events
		WHERE session_id = $1
		ORDER BY id`, sessionID.String())
}

// ListRecent returns up to limit records, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Record, error) {
	return s.list(ctx, `
		SELECT id, action, session_id, credential_id, principal_id, success,
			error_code, error_message, reason, request_id, context, created_at
		FROM audit_events
		ORDER BY id DESC
		LIMIT $1`, clampLimit(limit))
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]audit.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	records := make([]audit.Record, 0)
	for rows.Next() {
		var (
			r                                    audit.Record
			action, sessionID, credID, principal string
			payload                              []byte
		)
		if err := rows.Scan(&r.ID, &action, &sessionID, &credID, &principal, &r.Success,
			&r.ErrorCode, &r.ErrorMessage, &r.Reason, &r.RequestID, &payload, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		r.Action = audit.AuditEvent(action)
		r.SessionID = id.SessionID(sessionID)
		r.CredentialID = id.CredentialID(credID)
		r.PrincipalID = id.PrincipalID(principal)
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &r.Context); err != nil {
				return nil, fmt.Errorf("decode audit context: %w", err)
			}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return records, nil
}

// clampLimit keeps LIMIT within int32 so the driver never sees an overflowed value.
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 100
	case limit > math.MaxInt32:
		return math.MaxInt32
	default:
		return limit
	}
}
