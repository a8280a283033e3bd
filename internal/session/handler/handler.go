// Package handler exposes the operator surface of the session subsystem.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"mcpgate/internal/session/models"
	id "mcpgate/pkg/domain"
	dErrors "mcpgate/pkg/domain-errors"
	"mcpgate/pkg/platform/audit"
	"mcpgate/pkg/platform/httputil"
	"mcpgate/pkg/requestcontext"
	"mcpgate/pkg/validation"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// Service is the lifecycle manager as seen by the gateway and by operators.
type Service interface {
	Create(ctx context.Context, req *models.CreateRequest) (id.SessionID, error)
	Validate(ctx context.Context, sessionID id.SessionID, bumpActivity bool) (*models.Snapshot, error)
	Close(ctx context.Context, sessionID id.SessionID, reason string) error
	RevokeAll(ctx context.Context, credentialID id.CredentialID, reason string) (int, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

// Sweeper triggers an expiration sweep on demand.
type Sweeper interface {
	RunOnce(ctx context.Context) (*models.SweepResult, error)
}

type Handler struct {
	service Service
	sweeper Sweeper
	audit   audit.Reader
	logger  *slog.Logger
}

// New builds the handler. reader may be nil when the audit sink is write-only;
// the audit routes are then not registered.
func New(service Service, sweeper Sweeper, reader audit.Reader, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service: service,
		sweeper: sweeper,
		audit:   reader,
		logger:  logger,
	}
}

// Register mounts the session and admin routes. Callers wrap r with the
// admin token middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/sessions", h.HandleCreateSession)
	r.Post("/sessions/{sessionID}/touch", h.HandleTouchSession)
	r.Get("/admin/sessions/stats", h.HandleStats)
	r.Post("/admin/sessions/sweep", h.HandleSweep)
	r.Get("/admin/sessions/{sessionID}", h.HandleGetSession)
	r.Delete("/admin/sessions/{sessionID}", h.HandleCloseSession)
	r.Post("/admin/credentials/{credentialID}/revoke", h.HandleRevokeCredential)
	if h.audit != nil {
		r.Get("/admin/sessions/{sessionID}/audit", h.HandleSessionAudit)
		r.Get("/admin/audit/recent", h.HandleRecentAudit)
	}
}

// HandleCreateSession opens a session for a credential the gateway has
// already authenticated.
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateSessionRequest](w, r, h.logger)
	if !ok {
		return
	}

	sessionID, err := h.service.Create(ctx, req.toModel())
	if err != nil {
		if dErrors.KindOf(dErrors.CodeOf(err)) == dErrors.KindSystem {
			h.logger.ErrorContext(ctx, "failed to create session",
				"error", err,
				"credential_id", req.CredentialID,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, &CreateSessionResponse{SessionID: sessionID})
}

// HandleTouchSession validates a session and extends its activity, the
// per-request check the gateway makes.
func (h *Handler) HandleTouchSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snapshot, err := h.service.Validate(ctx, id.SessionID(chi.URLParam(r, "sessionID")), true)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(snapshot))
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.service.Stats(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to compute session stats",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// HandleSweep runs a sweep synchronously. Phase failures still return the
// partial counts alongside a 500.
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	res, err := h.sweeper.RunOnce(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "on-demand sweep failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteJSON(w, http.StatusInternalServerError, &SweepResponse{
			Error:       "internal_error",
			SweepResult: res,
		})
		return
	}
	h.logger.InfoContext(ctx, "on-demand sweep completed",
		"request_id", requestcontext.RequestID(ctx),
		"actor_id", requestcontext.ActorID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, &SweepResponse{SweepResult: res})
}

// HandleGetSession reports whether a session is live without extending it.
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snapshot, err := h.service.Validate(ctx, id.SessionID(chi.URLParam(r, "sessionID")), false)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSessionResponse(snapshot))
}

func (h *Handler) HandleCloseSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := id.SessionID(chi.URLParam(r, "sessionID"))
	reason := strings.TrimSpace(r.URL.Query().Get("reason"))
	if err := validation.CheckStringLength("reason", reason, validation.MaxNotesLength); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Close(ctx, sessionID, reason); err != nil {
		if dErrors.KindOf(dErrors.CodeOf(err)) == dErrors.KindSystem {
			h.logger.ErrorContext(ctx, "failed to close session",
				"error", err,
				"session_id", sessionID,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleRevokeCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	credentialID, err := id.ParseCredentialID(chi.URLParam(r, "credentialID"))
	if err == nil {
		err = validation.CheckStringLength("credential_id", credentialID.String(), validation.MaxCredentialIDLength)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[RevokeRequest](w, r, h.logger)
	if !ok {
		return
	}

	closed, err := h.service.RevokeAll(ctx, credentialID, req.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "credential revocation failed",
			"error", err,
			"credential_id", credentialID,
			"closed_count", closed,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &RevokeResponse{
		CredentialID: credentialID,
		ClosedCount:  closed,
	})
}

func (h *Handler) HandleSessionAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, err := h.audit.ListBySession(ctx, id.SessionID(chi.URLParam(r, "sessionID")))
	if err != nil {
		h.writeAuditError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &AuditResponse{Records: records, Total: len(records)})
}

func (h *Handler) HandleRecentAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = min(parsed, maxAuditLimit)
		}
	}
	records, err := h.audit.ListRecent(ctx, limit)
	if err != nil {
		h.writeAuditError(ctx, w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &AuditResponse{Records: records, Total: len(records)})
}

func (h *Handler) writeAuditError(ctx context.Context, w http.ResponseWriter, err error) {
	h.logger.ErrorContext(ctx, "failed to read audit trail",
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit trail"))
}

// CreateSessionRequest is the body of POST /sessions. Field checks happen in
// the service so rejections are counted and logged in one place.
type CreateSessionRequest struct {
	CredentialID   id.CredentialID       `json:"credential_id"`
	PrincipalID    id.PrincipalID        `json:"principal_id"`
	ClientInfo     json.RawMessage       `json:"client_info"`
	Capabilities   json.RawMessage       `json:"capabilities"`
	ConnectionType models.ConnectionType `json:"connection_type"`
	ClientIP       string                `json:"client_ip"`
	UserAgent      string                `json:"user_agent"`
}

func (r *CreateSessionRequest) toModel() *models.CreateRequest {
	return &models.CreateRequest{
		CredentialID:   r.CredentialID,
		PrincipalID:    r.PrincipalID,
		ClientInfo:     r.ClientInfo,
		Capabilities:   r.Capabilities,
		ConnectionType: r.ConnectionType,
		ClientIP:       r.ClientIP,
		UserAgent:      r.UserAgent,
	}
}

type CreateSessionResponse struct {
	SessionID id.SessionID `json:"session_id"`
}

// RevokeRequest is the optional body of a credential revocation.
type RevokeRequest struct {
	Reason string `json:"reason" validate:"max=256"`
}

func (r *RevokeRequest) Normalize() {
	r.Reason = strings.TrimSpace(r.Reason)
}

func (r *RevokeRequest) Validate() error {
	return validation.Validate(r)
}

type RevokeResponse struct {
	CredentialID id.CredentialID `json:"credential_id"`
	ClosedCount  int             `json:"closed_count"`
}

type SweepResponse struct {
	Error string `json:"error,omitempty"`
	*models.SweepResult
}

type SessionResponse struct {
	SessionID      id.SessionID          `json:"session_id"`
	CredentialID   id.CredentialID       `json:"credential_id"`
	PrincipalID    id.PrincipalID        `json:"principal_id,omitempty"`
	ConnectionType models.ConnectionType `json:"connection_type"`
	CreatedAt      time.Time             `json:"created_at"`
	LastActivity   time.Time             `json:"last_activity"`
}

type AuditResponse struct {
	Records []audit.Record `json:"records"`
	Total   int            `json:"total"`
}

func toSessionResponse(s *models.Snapshot) *SessionResponse {
	return &SessionResponse{
		SessionID:      s.SessionID,
		CredentialID:   s.CredentialID,
		PrincipalID:    s.PrincipalID,
		ConnectionType: s.ConnectionType,
		CreatedAt:      s.CreatedAt,
		LastActivity:   s.LastActivity,
	}
}
