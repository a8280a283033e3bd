package service

import (
	"context"
	"errors"

	"go.uber.org/mock/gomock"

	"mcpgate/internal/session/models"
	id "mcpgate/pkg/domain"
	dErrors "mcpgate/pkg/domain-errors"
	"mcpgate/pkg/platform/audit"
	"mcpgate/pkg/platform/sentinel"
	"mcpgate/pkg/testutil"
)

func (s *ServiceSuite) TestRevokeAllContinuesPastFailures() {
	a := s.activeSession("ak_1", testutil.Epoch)
	b := s.activeSession("ak_1", testutil.Epoch)
	c := s.activeSession("ak_1", testutil.Epoch)

	s.mockRepo.EXPECT().FindActiveByCredential(gomock.Any(), id.CredentialID("ak_1")).Return([]*models.Session{a, b, c}, nil)
	s.mockRepo.EXPECT().Deactivate(gomock.Any(), a.ID, "key rotated", gomock.Any()).Return(a, nil)
	s.mockRepo.EXPECT().Deactivate(gomock.Any(), b.ID, "key rotated", gomock.Any()).Return(nil, errors.New("lock timeout"))
	s.mockRepo.EXPECT().Deactivate(gomock.Any(), c.ID, "key rotated", gomock.Any()).Return(c, nil)
	// The bulk pass picks up the session whose individual close failed.
	s.mockRepo.EXPECT().DeactivateByCredential(gomock.Any(), id.CredentialID("ak_1"), "key rotated", gomock.Any()).Return([]id.SessionID{b.ID}, nil)
	s.mockCache.EXPECT().Remove(gomock.Any(), gomock.Any()).Return(true).Times(3)

	var actions []audit.AuditEvent
	s.mockPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r audit.Record) error {
		actions = append(actions, r.Action)
		return nil
	}).Times(4)

	closed, err := s.service.RevokeAll(s.ctx, "ak_1", "key rotated")

	s.Require().NoError(err)
	s.Equal(3, closed)
	s.Equal([]audit.AuditEvent{
		audit.EventSessionRevoked, audit.EventSessionRevoked, audit.EventSessionRevoked, audit.EventSessionsRevoked,
	}, actions)
}

func (s *ServiceSuite) TestRevokeAllSkipsConcurrentCloses() {
	a := s.activeSession("ak_1", testutil.Epoch)
	s.mockRepo.EXPECT().FindActiveByCredential(gomock.Any(), gomock.Any()).Return([]*models.Session{a}, nil)
	s.mockRepo.EXPECT().Deactivate(gomock.Any(), a.ID, models.NoteRevoked, gomock.Any()).Return(nil, sentinel.ErrNotFound)
	s.mockCache.EXPECT().Remove(gomock.Any(), a.ID).Return(false)
	s.mockRepo.EXPECT().DeactivateByCredential(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return([]id.SessionID{}, nil)
	s.expectAudit(1)

	closed, err := s.service.RevokeAll(s.ctx, "ak_1", "")

	s.Require().NoError(err)
	s.Zero(closed)
}

func (s *ServiceSuite) TestRevokeAllWhenListingFails() {
	sessionID := s.newSessionID()
	s.mockRepo.EXPECT().FindActiveByCredential(gomock.Any(), gomock.Any()).Return(nil, errors.New("replica lag"))
	s.mockRepo.EXPECT().DeactivateByCredential(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return([]id.SessionID{sessionID}, nil)
	s.mockCache.EXPECT().Remove(gomock.Any(), sessionID).Return(true)
	s.expectAudit(2)

	closed, err := s.service.RevokeAll(s.ctx, "ak_1", "")

	s.Require().NoError(err, "bulk pass succeeded, so nothing is left active")
	s.Equal(1, closed)
}

func (s *ServiceSuite) TestRevokeAllStoreDown() {
	s.mockRepo.EXPECT().FindActiveByCredential(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
	s.mockRepo.EXPECT().DeactivateByCredential(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))
	s.expectAudit(1)

	closed, err := s.service.RevokeAll(s.ctx, "ak_1", "")

	s.Zero(closed)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestRevokeAllRequiresCredential() {
	_, err := s.service.RevokeAll(s.ctx, "", "")

	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
}
