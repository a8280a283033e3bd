// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "mcpgate/pkg/domain-errors"
)

// SessionIDPrefix marks identifiers issued by the session subsystem.
const SessionIDPrefix = "mcp_"

// Distinct ID types - compiler prevents passing a CredentialID where a SessionID is expected.
type (
	// SessionID is an opaque, globally unique MCP session identifier ("mcp_<uuid>").
	SessionID string
	// CredentialID identifies the API key that owns a session.
	CredentialID string
	// PrincipalID identifies the acting identity behind a credential. Informational only.
	PrincipalID string
)

// NewSessionID mints a fresh identifier. Uniqueness against the store is the
// caller's job (see idgen).
func NewSessionID() (SessionID, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return SessionID(SessionIDPrefix + u.String()), nil
}

// Parse functions - use at trust boundaries (handlers, API inputs).

// ParseSessionID checks the prefix and the UUID body. It does not check existence.
func ParseSessionID(s string) (SessionID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "session ID cannot be empty")
	}
	body, ok := strings.CutPrefix(s, SessionIDPrefix)
	if !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid session ID format")
	}
	u, err := uuid.Parse(body)
	if err != nil || u == uuid.Nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid session ID format")
	}
	return SessionID(s), nil
}

func ParseCredentialID(s string) (CredentialID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "credential ID cannot be empty")
	}
	return CredentialID(s), nil
}

// String methods - for logging and debugging.

func (id SessionID) String() string    { return string(id) }
func (id CredentialID) String() string { return string(id) }
func (id PrincipalID) String() string  { return string(id) }

// IsNil checks - used for service-layer validation.

func (id SessionID) IsNil() bool    { return id == "" }
func (id CredentialID) IsNil() bool { return id == "" }
func (id PrincipalID) IsNil() bool  { return id == "" }
