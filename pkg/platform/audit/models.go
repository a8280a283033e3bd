package audit

import (
	"time"

	"github.com/oklog/ulid/v2"

	id "mcpgate/pkg/domain"
)

// Record is an immutable entry in the session audit trail. Keep it
// transport-agnostic so stores and sinks can fan out.
type Record struct {
	ID           string          `json:"id"`
	Action       AuditEvent      `json:"action"`
	SessionID    id.SessionID    `json:"session_id,omitempty"`
	CredentialID id.CredentialID `json:"credential_id,omitempty"`
	PrincipalID  id.PrincipalID  `json:"principal_id,omitempty"`
	Success      bool            `json:"success"`
	ErrorCode    string          `json:"error_code,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Reason       string          `json:"reason,omitempty"`
	RequestID    string          `json:"request_id,omitempty"`
	Context      map[string]any  `json:"context,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

// NewRecordID returns a time-ordered identifier for a record.
func NewRecordID() string {
	return ulid.Make().String()
}

type AuditEvent string

const (
	EventSessionCreated AuditEvent = "session_created"
	EventSessionClosed  AuditEvent = "session_closed"
	EventSessionExpired AuditEvent = "session_expired"
	EventSessionRevoked AuditEvent = "session_revoked"
	// EventSessionsRevoked summarizes a credential-wide cascade.
	EventSessionsRevoked AuditEvent = "sessions_revoked"
)

// Category routes events to retention tiers.
type Category string

const (
	CategorySecurity   Category = "security"
	CategoryOperations Category = "operations"
)

// Category returns the event's category. Unknown events default to
// operations so they are never dropped by category-based routing.
func (e AuditEvent) Category() Category {
	switch e {
	case EventSessionRevoked, EventSessionsRevoked:
		return CategorySecurity
	default:
		return CategoryOperations
	}
}
