package service

import (
	"context"
	"time"

	"mcpgate/internal/session/models"
	id "mcpgate/pkg/domain"
	dErrors "mcpgate/pkg/domain-errors"
	"mcpgate/pkg/platform/audit"
	"mcpgate/pkg/platform/privacy"
	"mcpgate/pkg/platform/tracer"
)

// observe opens a span and returns a finisher that ends it and records the
// operation duration.
func (s *Service) observe(ctx context.Context, op, spanName string, attrs ...tracer.Attribute) (context.Context, tracer.Span, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, spanName, attrs...)
	return ctx, span, func(err error) {
		span.End(err)
		if s.metrics != nil {
			s.metrics.ObserveOperation(op, float64(time.Since(start).Microseconds())/1000)
		}
	}
}

func (s *Service) emitAudit(ctx context.Context, event audit.AuditEvent, sess *models.Session, reason string, extra map[string]any) {
	record := audit.Record{
		Action:    event,
		Success:   true,
		Reason:    reason,
		Context:   extra,
		Timestamp: s.now(),
	}
	if sess != nil {
		record.SessionID = sess.ID
		record.CredentialID = sess.CredentialID
		record.PrincipalID = sess.PrincipalID
	}
	s.auditor.Log(ctx, record)
}

// provenance is the audit context for a new session. Raw IPs and user agents
// never leave the store.
func provenance(req *models.CreateRequest) map[string]any {
	return map[string]any{
		"connection_type": req.ConnectionType.String(),
		"client_ip":       privacy.AnonymizeIP(req.ClientIP),
		"user_agent":      privacy.SummarizeUserAgent(req.UserAgent).String(),
	}
}

func (s *Service) rejectCreate(ctx context.Context, credentialID id.CredentialID, err error) {
	code := dErrors.CodeOf(err)
	if s.metrics != nil {
		s.metrics.IncrementRejected(string(code))
	}
	level := s.logger.InfoContext
	if dErrors.KindOf(code) == dErrors.KindSystem {
		level = s.logger.ErrorContext
	}
	level(ctx, "session creation rejected",
		"credential_id", credentialID,
		"code", code,
		"error", err,
	)
}

func (s *Service) countValidate(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementValidate(outcome)
	}
}

func (s *Service) countEnded(reason string, n int) {
	if s.metrics != nil {
		s.metrics.IncrementEnded(reason, n)
	}
}
