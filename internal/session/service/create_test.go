package service

import (
	"context"
	"errors"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"mcpgate/internal/session/cache"
	"mcpgate/internal/session/models"
	id "mcpgate/pkg/domain"
	dErrors "mcpgate/pkg/domain-errors"
	"mcpgate/pkg/platform/audit"
	"mcpgate/pkg/platform/sentinel"
	"mcpgate/pkg/testutil"
)

func (s *ServiceSuite) TestCreate() {
	s.Run("persists, seeds the cache and audits", func() {
		sessionID := s.newSessionID()
		req := testutil.NewCreateRequest("ak_1").Build()

		s.mockAdmitter.EXPECT().Admit(gomock.Any(), id.CredentialID("ak_1")).Return(nil)
		s.mockIDs.EXPECT().Generate(gomock.Any()).Return(sessionID, nil)
		s.mockRepo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, sess *models.Session) error {
				s.Equal(sessionID, sess.ID)
				s.True(sess.IsActive)
				s.Equal(testutil.Epoch, sess.CreatedAt)
				s.Equal(sess.CreatedAt, sess.LastActivity)
				return nil
			})
		s.mockCache.EXPECT().Put(gomock.Any(), gomock.Any()).Do(
			func(_ context.Context, entry *cache.Entry) {
				s.Equal(sessionID, entry.SessionID)
				s.Equal(testutil.Epoch, entry.LastActivity)
			})
		s.mockPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, record audit.Record) error {
				s.Equal(audit.EventSessionCreated, record.Action)
				s.Equal(sessionID, record.SessionID)
				s.True(record.Success)
				s.Equal("192.168.1.0", record.Context["client_ip"])
				s.NotContains(record.Context["user_agent"], "Mozilla")
				return nil
			})

		got, err := s.service.Create(s.ctx, req)

		s.Require().NoError(err)
		s.Equal(sessionID, got)
	})

	s.Run("audit failure does not fail creation", func() {
		sessionID := s.newSessionID()
		s.mockAdmitter.EXPECT().Admit(gomock.Any(), gomock.Any()).Return(nil)
		s.mockIDs.EXPECT().Generate(gomock.Any()).Return(sessionID, nil)
		s.mockRepo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
		s.mockCache.EXPECT().Put(gomock.Any(), gomock.Any())
		s.mockPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("sink down"))

		got, err := s.service.Create(s.ctx, testutil.NewCreateRequest("ak_1").Build())

		s.Require().NoError(err)
		s.Equal(sessionID, got)
	})

	s.Run("panicking audit sink does not fail creation", func() {
		s.mockAdmitter.EXPECT().Admit(gomock.Any(), gomock.Any()).Return(nil)
		s.mockIDs.EXPECT().Generate(gomock.Any()).Return(s.newSessionID(), nil)
		s.mockRepo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
		s.mockCache.EXPECT().Put(gomock.Any(), gomock.Any())
		s.mockPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Do(
			func(context.Context, audit.Record) { panic("boom") })

		_, err := s.service.Create(s.ctx, testutil.NewCreateRequest("ak_1").Build())

		s.Require().NoError(err)
	})
}

func (s *ServiceSuite) TestCreateValidationHasNoSideEffects() {
	tests := []struct {
		name string
		req  *models.CreateRequest
		code dErrors.Code
	}{
		{"nil request", nil, dErrors.CodeBadRequest},
		{"missing credential", testutil.NewCreateRequest("").Build(), dErrors.CodeBadRequest},
		{"client info not an object", testutil.NewCreateRequest("ak_1").WithClientInfo(`[1,2]`).Build(), dErrors.CodeInvalidClientInfo},
		{"client info missing name", testutil.NewCreateRequest("ak_1").WithClientInfo(`{"version":"1"}`).Build(), dErrors.CodeInvalidClientInfo},
		{"capabilities malformed", testutil.NewCreateRequest("ak_1").WithCapabilities(`{"roots":`).Build(), dErrors.CodeInvalidCapabilities},
		{"unknown connection type", testutil.NewCreateRequest("ak_1").WithConnectionType("carrier-pigeon").Build(), dErrors.CodeInvalidConnectionType},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			// No collaborator expectations: any call fails the test.
			_, err := s.service.Create(s.ctx, tt.req)

			s.Require().Error(err)
			s.True(dErrors.HasCode(err, tt.code), "got %v", err)
			s.Equal(dErrors.KindValidation, dErrors.KindOf(tt.code))
		})
	}
}

func (s *ServiceSuite) TestCreateAdmissionRejection() {
	for _, code := range []dErrors.Code{dErrors.CodeMaxSessionsExceeded, dErrors.CodeCredentialSessionLimit} {
		s.Run(string(code), func() {
			s.mockAdmitter.EXPECT().Admit(gomock.Any(), id.CredentialID("ak_1")).Return(dErrors.New(code, "limit"))

			_, err := s.service.Create(s.ctx, testutil.NewCreateRequest("ak_1").Build())

			s.True(dErrors.HasCode(err, code))
		})
	}
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.CreateRejected.WithLabelValues(string(dErrors.CodeCredentialSessionLimit))))
}

func (s *ServiceSuite) TestCreateRetriesOnSaveConflict() {
	first, second := s.newSessionID(), s.newSessionID()
	s.mockAdmitter.EXPECT().Admit(gomock.Any(), gomock.Any()).Return(nil)
	gomock.InOrder(
		s.mockIDs.EXPECT().Generate(gomock.Any()).Return(first, nil),
		s.mockRepo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict),
		s.mockIDs.EXPECT().Generate(gomock.Any()).Return(second, nil),
		s.mockRepo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil),
	)
	s.mockCache.EXPECT().Put(gomock.Any(), gomock.Any())
	s.expectAudit(1)

	got, err := s.service.Create(s.ctx, testutil.NewCreateRequest("ak_1").Build())

	s.Require().NoError(err)
	s.Equal(second, got)
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.IDCollisions))
}

func (s *ServiceSuite) TestCreateSaveConflictExhaustion() {
	s.Require().NoError(s.service.Shutdown(s.ctx))
	s.cfg.SaveAttempts = 2
	s.service = s.newService()

	s.mockAdmitter.EXPECT().Admit(gomock.Any(), gomock.Any()).Return(nil)
	s.mockIDs.EXPECT().Generate(gomock.Any()).DoAndReturn(func(context.Context) (id.SessionID, error) {
		return s.newSessionID(), nil
	}).Times(2)
	s.mockRepo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict).Times(2)

	_, err := s.service.Create(s.ctx, testutil.NewCreateRequest("ak_1").Build())

	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.IDExhausted))
}

func (s *ServiceSuite) TestCreateSystemErrors() {
	s.Run("generator failure passes through", func() {
		s.mockAdmitter.EXPECT().Admit(gomock.Any(), gomock.Any()).Return(nil)
		s.mockIDs.EXPECT().Generate(gomock.Any()).Return(id.SessionID(""), dErrors.New(dErrors.CodeInternal, "exhausted"))

		_, err := s.service.Create(s.ctx, testutil.NewCreateRequest("ak_1").Build())

		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("store failure is internal and skips the cache", func() {
		s.mockAdmitter.EXPECT().Admit(gomock.Any(), gomock.Any()).Return(nil)
		s.mockIDs.EXPECT().Generate(gomock.Any()).Return(s.newSessionID(), nil)
		s.mockRepo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

		_, err := s.service.Create(s.ctx, testutil.NewCreateRequest("ak_1").Build())

		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
