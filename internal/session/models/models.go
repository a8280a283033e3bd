package models

import (
	"encoding/json"
	"time"

	id "mcpgate/pkg/domain"
)

// This file contains pure domain models for MCP sessions: entities that do
// not depend on transport or storage concerns.

// ConnectionType is the transport kind a client declared when opening a session.
type ConnectionType string

const (
	ConnectionTypeHTTP      ConnectionType = "http"      // request/response
	ConnectionTypeSSE       ConnectionType = "sse"       // server-sent event stream
	ConnectionTypeWebSocket ConnectionType = "websocket" // interactive, bidirectional
)

// ConnectionTypes lists the closed set of accepted connection types.
var ConnectionTypes = []ConnectionType{ConnectionTypeHTTP, ConnectionTypeSSE, ConnectionTypeWebSocket}

func (c ConnectionType) IsValid() bool {
	switch c {
	case ConnectionTypeHTTP, ConnectionTypeSSE, ConnectionTypeWebSocket:
		return true
	}
	return false
}

func (c ConnectionType) String() string { return string(c) }

// Deactivation reasons recorded in Session.Notes.
const (
	NoteExpired = "expired"
	NoteClosed  = "closed"
	NoteRevoked = "revoked"
)

// Session is an ephemeral, time-bounded grant tied to a credential.
// Invariants:
//   - ID is unique for the lifetime of the store and never reused
//   - LastActivity >= CreatedAt, and only moves forward while active
//   - once IsActive is false it never becomes true again
type Session struct {
	ID           id.SessionID
	CredentialID id.CredentialID
	PrincipalID  id.PrincipalID

	// Opaque after creation; validated once by ValidateClientInfo/ValidateCapabilities.
	ClientInfo   json.RawMessage
	Capabilities json.RawMessage

	ConnectionType ConnectionType
	ClientIP       string
	UserAgent      string

	CreatedAt    time.Time
	LastActivity time.Time
	IsActive     bool
	Notes        string
	EndedAt      *time.Time
}

// NewSession builds an active session whose activity clock starts at now.
func NewSession(sessionID id.SessionID, req *CreateRequest, now time.Time) *Session {
	return &Session{
		ID:             sessionID,
		CredentialID:   req.CredentialID,
		PrincipalID:    req.PrincipalID,
		ClientInfo:     req.ClientInfo,
		Capabilities:   req.Capabilities,
		ConnectionType: req.ConnectionType,
		ClientIP:       req.ClientIP,
		UserAgent:      req.UserAgent,
		CreatedAt:      now,
		LastActivity:   now,
		IsActive:       true,
	}
}

// IsLive reports whether the session is active and was seen at or after cutoff.
func (s *Session) IsLive(cutoff time.Time) bool {
	return s.IsActive && !s.LastActivity.Before(cutoff)
}

// RecordActivity moves LastActivity forward. Returns false for inactive
// sessions or timestamps that would move the clock backwards.
func (s *Session) RecordActivity(at time.Time) bool {
	if !s.IsActive || !at.After(s.LastActivity) {
		return false
	}
	s.LastActivity = at
	return true
}

// Deactivate marks the session inactive with a reason.
// Returns false if the session was already inactive.
func (s *Session) Deactivate(reason string, at time.Time) bool {
	if !s.IsActive {
		return false
	}
	s.IsActive = false
	s.Notes = reason
	s.EndedAt = &at
	return true
}

// Snapshot returns the read-only view handed to callers of Validate.
func (s *Session) Snapshot() *Snapshot {
	return &Snapshot{
		SessionID:      s.ID,
		CredentialID:   s.CredentialID,
		PrincipalID:    s.PrincipalID,
		ConnectionType: s.ConnectionType,
		CreatedAt:      s.CreatedAt,
		LastActivity:   s.LastActivity,
	}
}

// Snapshot is the point-in-time view of a valid session.
type Snapshot struct {
	SessionID      id.SessionID
	CredentialID   id.CredentialID
	PrincipalID    id.PrincipalID
	ConnectionType ConnectionType
	CreatedAt      time.Time
	LastActivity   time.Time
}

// Stats is an approximate, point-in-time aggregation for operators.
type Stats struct {
	ActiveCount         int                    `json:"active_count"`
	RecentlyActiveCount int                    `json:"recently_active_count"`
	CacheSize           int                    `json:"cache_size"`
	ConnectionTypes     map[ConnectionType]int `json:"connection_types"`
	Ceiling             int                    `json:"ceiling"`
	UtilizationPercent  float64                `json:"utilization_percent"`
	GeneratedAt         time.Time              `json:"generated_at"`
}

// SweepResult summarizes one reconciler run.
type SweepResult struct {
	Expired     int           `json:"expired_count"`
	Purged      int           `json:"purged_count"`
	CachePruned int           `json:"cache_pruned_count"`
	Reconciled  int           `json:"reconciled_count"`
	Duration    time.Duration `json:"-"`
	DurationMs  int64         `json:"duration_ms"`
}
