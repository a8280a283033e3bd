package service

import (
	"context"
	"errors"

	"mcpgate/internal/session/cache"
	"mcpgate/internal/session/models"
	id "mcpgate/pkg/domain"
	dErrors "mcpgate/pkg/domain-errors"
	"mcpgate/pkg/platform/audit"
	"mcpgate/pkg/platform/sentinel"
	"mcpgate/pkg/platform/tracer"
)

// Create opens a session for req.CredentialID and returns its identifier.
//
// Validation and admission failures have no side effects. Once the record is
// saved the call succeeds even if the audit sink fails.
func (s *Service) Create(ctx context.Context, req *models.CreateRequest) (_ id.SessionID, err error) {
	var credentialID id.CredentialID
	if req != nil {
		credentialID = req.CredentialID
	}
	ctx, span, finish := s.observe(ctx, "create", tracer.SpanSessionCreate,
		tracer.String(tracer.AttrCredentialID, credentialID.String()))
	defer func() { finish(err) }()

	req.Normalize()
	if err := req.Validate(); err != nil {
		s.rejectCreate(ctx, credentialID, err)
		return "", err
	}
	if err := s.admission.Admit(ctx, req.CredentialID); err != nil {
		s.rejectCreate(ctx, credentialID, err)
		return "", err
	}

	session, err := s.persistNew(ctx, req)
	if err != nil {
		s.rejectCreate(ctx, credentialID, err)
		return "", err
	}
	span.SetAttributes(tracer.String(tracer.AttrSessionID, session.ID.String()))

	s.cache.Put(ctx, cache.EntryFromSession(session))
	s.emitAudit(ctx, audit.EventSessionCreated, session, "", provenance(req))
	if s.metrics != nil {
		s.metrics.IncrementCreated()
	}
	return session.ID, nil
}

// persistNew allocates an id and saves the session. The store's unique
// constraint is the backstop for the generator's existence check: a conflict
// on Save means another writer won the id, so a fresh one is drawn.
func (s *Service) persistNew(ctx context.Context, req *models.CreateRequest) (*models.Session, error) {
	for attempt := 1; attempt <= s.cfg.SaveAttempts; attempt++ {
		sessionID, err := s.ids.Generate(ctx)
		if err != nil {
			return nil, err
		}
		session := models.NewSession(sessionID, req, s.now())
		err = s.repo.Save(ctx, session)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return nil, translateStoreError(err, "save session")
		}
		s.logger.WarnContext(ctx, "session id conflict on save", "attempt", attempt)
		if s.metrics != nil {
			s.metrics.IncrementIDCollision()
		}
	}
	s.logger.ErrorContext(ctx, "session save exhausted id attempts",
		"attempts", s.cfg.SaveAttempts,
		"alert", true,
	)
	if s.metrics != nil {
		s.metrics.IncrementIDExhausted()
	}
	return nil, dErrors.New(dErrors.CodeInternal, "unable to allocate a unique session id")
}
