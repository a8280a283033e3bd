package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"mcpgate/internal/session/models"
	id "mcpgate/pkg/domain"
	"mcpgate/pkg/platform/sentinel"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

const sessionColumns = `id, credential_id, principal_id, client_info, capabilities, connection_type,
	client_ip, user_agent, created_at, last_activity, is_active, notes, ended_at`

// PostgresStore persists sessions in PostgreSQL. Every method is a single
// statement or a single transaction, so the table itself arbitrates races.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed session store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Save inserts a new session and reserves its identifier permanently.
func (s *PostgresStore) Save(ctx context.Context, session *models.Session) error {
	if session == nil {
		return fmt.Errorf("session is required: %w", sentinel.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save session tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO mcp_issued_session_ids (id, issued_at) VALUES ($1, $2)`,
		session.ID.String(), session.CreatedAt,
	); err != nil {
		return translateWriteError("reserve session id", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO mcp_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		session.ID.String(),
		session.CredentialID.String(),
		session.PrincipalID.String(),
		[]byte(session.ClientInfo),
		[]byte(session.Capabilities),
		session.ConnectionType.String(),
		session.ClientIP,
		session.UserAgent,
		session.CreatedAt,
		session.LastActivity,
		session.IsActive,
		session.Notes,
		nullTime(session.EndedAt),
	)
	if err != nil {
		return translateWriteError("insert session", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save session: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, sessionID id.SessionID) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM mcp_sessions WHERE id = $1`, sessionID.String())
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find session by id: %w", err)
	}
	return session, nil
}

func (s *PostgresStore) FindActiveByID(ctx context.Context, sessionID id.SessionID, cutoff time.Time) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM mcp_sessions
		WHERE id = $1 AND is_active AND last_activity >= $2`,
		sessionID.String(), cutoff,
	)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("active session not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find active session: %w", err)
	}
	return session, nil
}

func (s *PostgresStore) ExistsByID(ctx context.Context, sessionID id.SessionID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM mcp_issued_session_ids WHERE id = $1)`, sessionID.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check session id: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) FindActiveByCredential(ctx context.Context, credentialID id.CredentialID) ([]*models.Session, error) {
	return s.query(ctx, "list sessions by credential", `
		SELECT `+sessionColumns+` FROM mcp_sessions
		WHERE credential_id = $1 AND is_active
		ORDER BY created_at`, credentialID.String())
}

func (s *PostgresStore) FindExpiredBefore(ctx context.Context, cutoff time.Time) ([]*models.Session, error) {
	return s.query(ctx, "list expired sessions", `
		SELECT `+sessionColumns+` FROM mcp_sessions
		WHERE is_active AND last_activity < $1
		ORDER BY last_activity`, cutoff)
}

func (s *PostgresStore) CountActive(ctx context.Context) (int, error) {
	return s.count(ctx, "count active sessions", `SELECT COUNT(*) FROM mcp_sessions WHERE is_active`)
}

func (s *PostgresStore) CountActiveByCredential(ctx context.Context, credentialID id.CredentialID) (int, error) {
	return s.count(ctx, "count active sessions by credential",
		`SELECT COUNT(*) FROM mcp_sessions WHERE is_active AND credential_id = $1`, credentialID.String())
}

func (s *PostgresStore) CountActiveSince(ctx context.Context, since time.Time) (int, error) {
	return s.count(ctx, "count recently active sessions",
		`SELECT COUNT(*) FROM mcp_sessions WHERE is_active AND last_activity >= $1`, since)
}

func (s *PostgresStore) CountActiveByConnectionType(ctx context.Context) (map[models.ConnectionType]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT connection_type, COUNT(*) FROM mcp_sessions WHERE is_active GROUP BY connection_type`)
	if err != nil {
		return nil, fmt.Errorf("count sessions by connection type: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ConnectionType]int, len(models.ConnectionTypes))
	for rows.Next() {
		var connType string
		var n int
		if err := rows.Scan(&connType, &n); err != nil {
			return nil, fmt.Errorf("scan connection type count: %w", err)
		}
		counts[models.ConnectionType(connType)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connection type counts: %w", err)
	}
	return counts, nil
}

// Touch moves last activity forward on an active session. GREATEST keeps the
// column monotonic when touches arrive out of order.
func (s *PostgresStore) Touch(ctx context.Context, sessionID id.SessionID, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE mcp_sessions SET last_activity = GREATEST(last_activity, $2)
		WHERE id = $1 AND is_active`,
		sessionID.String(), at,
	)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return requireAffected(res, "touch session")
}

func (s *PostgresStore) Deactivate(ctx context.Context, sessionID id.SessionID, reason string, at time.Time) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE mcp_sessions SET is_active = FALSE, notes = $2, ended_at = $3
		WHERE id = $1 AND is_active
		RETURNING `+sessionColumns,
		sessionID.String(), reason, at,
	)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("active session not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("deactivate session: %w", err)
	}
	return session, nil
}

// Expire deactivates a session only while it is still active and idle since
// before cutoff, so a touch that lands after the sweep selected it wins.
func (s *PostgresStore) Expire(ctx context.Context, sessionID id.SessionID, cutoff, at time.Time) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE mcp_sessions SET is_active = FALSE, notes = $3, ended_at = $4
		WHERE id = $1 AND is_active AND last_activity < $2
		RETURNING `+sessionColumns,
		sessionID.String(), cutoff, models.NoteExpired, at,
	)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("idle session not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("expire session: %w", err)
	}
	return session, nil
}

// DeactivateByCredential closes every active session of a credential in one
// statement and returns the affected identifiers.
func (s *PostgresStore) DeactivateByCredential(ctx context.Context, credentialID id.CredentialID, reason string, at time.Time) ([]id.SessionID, error) {
	rows, err := s.db.QueryContext(ctx, `
		UPDATE mcp_sessions SET is_active = FALSE, notes = $2, ended_at = $3
		WHERE credential_id = $1 AND is_active
		RETURNING id`,
		credentialID.String(), reason, at,
	)
	if err != nil {
		return nil, fmt.Errorf("deactivate sessions by credential: %w", err)
	}
	defer rows.Close()

	ids := make([]id.SessionID, 0)
	for rows.Next() {
		var sessionID string
		if err := rows.Scan(&sessionID); err != nil {
			return nil, fmt.Errorf("scan deactivated session id: %w", err)
		}
		ids = append(ids, id.SessionID(sessionID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("deactivate sessions by credential: %w", err)
	}
	return ids, nil
}

// DeleteInactiveBefore hard-deletes inactive sessions last seen before cutoff.
// Issued identifiers are kept in mcp_issued_session_ids.
func (s *PostgresStore) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM mcp_sessions WHERE NOT is_active AND last_activity < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete inactive sessions: %w", err)
	}
	return rowsAffected(res, "delete inactive sessions")
}

func (s *PostgresStore) FilterActive(ctx context.Context, ids []id.SessionID) ([]id.SessionID, error) {
	if len(ids) == 0 {
		return []id.SessionID{}, nil
	}
	raw := make([]string, len(ids))
	for i, sessionID := range ids {
		raw[i] = sessionID.String()
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM mcp_sessions WHERE id = ANY($1) AND is_active`, raw)
	if err != nil {
		return nil, fmt.Errorf("filter active sessions: %w", err)
	}
	defer rows.Close()

	active := make([]id.SessionID, 0, len(ids))
	for rows.Next() {
		var sessionID string
		if err := rows.Scan(&sessionID); err != nil {
			return nil, fmt.Errorf("scan active session id: %w", err)
		}
		active = append(active, id.SessionID(sessionID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active session ids: %w", err)
	}
	return active, nil
}

func (s *PostgresStore) query(ctx context.Context, op, query string, args ...any) ([]*models.Session, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	sessions := make([]*models.Session, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sessions, nil
}

func (s *PostgresStore) count(ctx context.Context, op, query string, args ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		sessionID, credentialID, principalID string
		clientInfo, capabilities             []byte
		connType                             string
		endedAt                              sql.NullTime
		session                              models.Session
	)
	err := row.Scan(
		&sessionID, &credentialID, &principalID,
		&clientInfo, &capabilities, &connType,
		&session.ClientIP, &session.UserAgent,
		&session.CreatedAt, &session.LastActivity,
		&session.IsActive, &session.Notes, &endedAt,
	)
	if err != nil {
		return nil, err
	}
	session.ID = id.SessionID(sessionID)
	session.CredentialID = id.CredentialID(credentialID)
	session.PrincipalID = id.PrincipalID(principalID)
	session.ClientInfo = clientInfo
	session.Capabilities = capabilities
	session.ConnectionType = models.ConnectionType(connType)
	if endedAt.Valid {
		t := endedAt.Time
		session.EndedAt = &t
	}
	return &session, nil
}

func translateWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireAffected(res sql.Result, op string) error {
	n, err := rowsAffected(res, op)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("active session not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func rowsAffected(res sql.Result, op string) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s rows: %w", op, err)
	}
	return int(n), nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
