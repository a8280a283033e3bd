package service

import (
	"context"
	"errors"

	"mcpgate/internal/session/models"
	id "mcpgate/pkg/domain"
	dErrors "mcpgate/pkg/domain-errors"
	"mcpgate/pkg/platform/audit"
	"mcpgate/pkg/platform/tracer"
)

// RevokeAll force-closes every active session of a credential and returns
// how many it closed.
//
// Sessions are closed one by one so each gets its own audit record; failures
// are logged and skipped. A bulk deactivation then sweeps up anything the
// loop missed, including sessions opened while it ran, so no active session
// survives unless the store itself is down.
func (s *Service) RevokeAll(ctx context.Context, credentialID id.CredentialID, reason string) (closed int, err error) {
	ctx, span, finish := s.observe(ctx, "revoke_all", tracer.SpanSessionRevoke,
		tracer.String(tracer.AttrCredentialID, credentialID.String()))
	defer func() {
		span.SetAttributes(tracer.Int(tracer.AttrCount, closed))
		finish(err)
	}()

	if credentialID.IsNil() {
		return 0, dErrors.New(dErrors.CodeBadRequest, "credential_id is required")
	}
	if reason == "" {
		reason = models.NoteRevoked
	}

	sessions, listErr := s.repo.FindActiveByCredential(ctx, credentialID)
	if listErr != nil {
		s.logger.ErrorContext(ctx, "failed to list sessions for revocation",
			"credential_id", credentialID,
			"error", listErr,
		)
	}

	failed := 0
	for _, session := range sessions {
		if _, closeErr := s.closeSession(ctx, session.ID, reason, audit.EventSessionRevoked); closeErr != nil {
			if dErrors.HasCode(closeErr, dErrors.CodeNotFound) {
				continue // closed concurrently
			}
			failed++
			s.logger.WarnContext(ctx, "failed to revoke session",
				"session_id", session.ID,
				"credential_id", credentialID,
				"error", closeErr,
			)
			continue
		}
		closed++
	}

	swept, sweepErr := s.repo.DeactivateByCredential(ctx, credentialID, reason, s.now())
	for _, sessionID := range swept {
		s.cache.Remove(ctx, sessionID)
		s.emitAudit(ctx, audit.EventSessionRevoked, &models.Session{ID: sessionID, CredentialID: credentialID}, reason,
			map[string]any{"bulk": true})
	}
	s.countEnded(models.NoteRevoked, len(swept))
	closed += len(swept)

	s.emitAudit(ctx, audit.EventSessionsRevoked, &models.Session{CredentialID: credentialID}, reason, map[string]any{
		"closed_count": closed,
		"failed_count": failed,
	})

	if sweepErr != nil {
		s.logger.ErrorContext(ctx, "bulk revocation failed",
			"credential_id", credentialID,
			"error", sweepErr,
		)
		if listErr != nil || failed > 0 {
			return closed, translateStoreError(errors.Join(listErr, sweepErr), "revoke sessions")
		}
	}
	return closed, nil
}
