package service

import (
	"context"
	"errors"
	"time"

	"mcpgate/internal/session/models"
	id "mcpgate/pkg/domain"
	"mcpgate/pkg/platform/audit"
	"mcpgate/pkg/platform/sentinel"
	"mcpgate/pkg/platform/tracer"
)

// Close deactivates an active session. Closing an unknown or already-closed
// session returns NOT_FOUND, so a repeated close is harmless.
func (s *Service) Close(ctx context.Context, sessionID id.SessionID, reason string) (err error) {
	ctx, _, finish := s.observe(ctx, "close", tracer.SpanSessionClose,
		tracer.String(tracer.AttrSessionID, sessionID.String()))
	defer func() { finish(err) }()

	if reason == "" {
		reason = models.NoteClosed
	}
	_, err = s.closeSession(ctx, sessionID, reason, audit.EventSessionClosed)
	return err
}

func (s *Service) closeSession(ctx context.Context, sessionID id.SessionID, reason string, event audit.AuditEvent) (*models.Session, error) {
	if _, err := id.ParseSessionID(sessionID.String()); err != nil {
		return nil, errCloseNotFound
	}
	session, err := s.repo.Deactivate(ctx, sessionID, reason, s.now())
	if errors.Is(err, sentinel.ErrNotFound) {
		// Drop any hint left behind by a racing writer.
		s.cache.Remove(ctx, sessionID)
		return nil, errCloseNotFound
	}
	if err != nil {
		return nil, translateStoreError(err, "close session")
	}

	s.cache.Remove(ctx, sessionID)
	s.emitAudit(ctx, event, session, reason, nil)
	s.countEnded(endedLabel(event), 1)
	return session, nil
}

// ExpireSession deactivates a session that has been idle past the timeout.
// It is the path shared by Validate and the reconciler. A session touched
// since it was selected is left alone and reported as NOT_FOUND.
func (s *Service) ExpireSession(ctx context.Context, sessionID id.SessionID) error {
	_, err := s.expire(ctx, sessionID, s.now())
	return err
}

func (s *Service) expire(ctx context.Context, sessionID id.SessionID, now time.Time) (*models.Session, error) {
	session, err := s.repo.Expire(ctx, sessionID, s.cutoff(now), now)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, errCloseNotFound
	}
	if err != nil {
		return nil, translateStoreError(err, "expire session")
	}

	s.cache.Remove(ctx, sessionID)
	s.emitAudit(ctx, audit.EventSessionExpired, session, models.NoteExpired, map[string]any{
		"idle_seconds": int64(now.Sub(session.LastActivity).Seconds()),
	})
	s.countEnded(models.NoteExpired, 1)
	return session, nil
}

func endedLabel(event audit.AuditEvent) string {
	switch event {
	case audit.EventSessionRevoked:
		return models.NoteRevoked
	case audit.EventSessionExpired:
		return models.NoteExpired
	default:
		return models.NoteClosed
	}
}
