package service

import (
	"context"
	"errors"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"mcpgate/internal/session/models"
	id "mcpgate/pkg/domain"
	dErrors "mcpgate/pkg/domain-errors"
	"mcpgate/pkg/platform/audit"
	"mcpgate/pkg/platform/sentinel"
	"mcpgate/pkg/testutil"
)

func (s *ServiceSuite) TestClose() {
	sess := s.activeSession("ak_1", testutil.Epoch)

	s.Run("deactivates, evicts and audits", func() {
		closed := *sess
		closed.Deactivate("client disconnect", testutil.Epoch)
		s.mockRepo.EXPECT().Deactivate(gomock.Any(), sess.ID, "client disconnect", testutil.Epoch).Return(&closed, nil)
		s.mockCache.EXPECT().Remove(gomock.Any(), sess.ID).Return(true)
		s.mockPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r audit.Record) error {
			s.Equal(audit.EventSessionClosed, r.Action)
			s.Equal("client disconnect", r.Reason)
			s.Equal(sess.CredentialID, r.CredentialID)
			return nil
		})

		s.Require().NoError(s.service.Close(s.ctx, sess.ID, "client disconnect"))
	})

	s.Run("second close is not found", func() {
		s.mockRepo.EXPECT().Deactivate(gomock.Any(), sess.ID, models.NoteClosed, gomock.Any()).Return(nil, sentinel.ErrNotFound)
		s.mockCache.EXPECT().Remove(gomock.Any(), sess.ID).Return(false)

		err := s.service.Close(s.ctx, sess.ID, "")

		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("malformed id is not found", func() {
		err := s.service.Close(s.ctx, "garbage", "")

		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("store failure is internal", func() {
		s.mockRepo.EXPECT().Deactivate(gomock.Any(), sess.ID, gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

		err := s.service.Close(s.ctx, sess.ID, "")

		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.SessionsEnded.WithLabelValues(models.NoteClosed)))
}

func (s *ServiceSuite) TestExpireSession() {
	sess := s.activeSession("ak_1", testutil.Epoch)
	s.clock.Advance(90 * time.Minute)
	now := s.clock.Now()

	s.Run("idle session is expired", func() {
		expired := *sess
		expired.Deactivate(models.NoteExpired, now)
		s.mockRepo.EXPECT().Expire(gomock.Any(), sess.ID, now.Add(-DefaultSessionTimeout), now).Return(&expired, nil)
		s.mockCache.EXPECT().Remove(gomock.Any(), sess.ID).Return(true)
		s.mockPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r audit.Record) error {
			s.Equal(audit.EventSessionExpired, r.Action)
			s.EqualValues(90*60, r.Context["idle_seconds"])
			return nil
		})

		s.Require().NoError(s.service.ExpireSession(s.ctx, sess.ID))
	})

	s.Run("recently touched session is left alone", func() {
		other := id.SessionID("mcp_0f8fad5b-d9cb-469f-a165-70867728950e")
		s.mockRepo.EXPECT().Expire(gomock.Any(), other, gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)

		err := s.service.ExpireSession(s.ctx, other)

		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
