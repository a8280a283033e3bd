package service

import (
	"context"
	"errors"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"mcpgate/internal/session/cache"
	"mcpgate/internal/session/metrics"
	"mcpgate/internal/session/models"
	id "mcpgate/pkg/domain"
	dErrors "mcpgate/pkg/domain-errors"
	"mcpgate/pkg/platform/audit"
	"mcpgate/pkg/platform/sentinel"
	"mcpgate/pkg/testutil"
)

func (s *ServiceSuite) TestValidateMalformedIDSkipsStore() {
	for _, raw := range []string{"", "not-a-session", "mcp_not-a-uuid", "sess_6f1c0d0e-8a7e-4c43-9a55-1d2f6b1e9c11"} {
		s.Run(raw, func() {
			_, err := s.service.Validate(s.ctx, id.SessionID(raw), true)

			s.True(dErrors.HasCode(err, dErrors.CodeSessionInvalid))
		})
	}
}

func (s *ServiceSuite) TestValidateFastPath() {
	sess := s.activeSession("ak_1", testutil.Epoch)
	s.clock.Advance(10 * time.Minute)
	now := s.clock.Now()

	s.Run("bump touches the cache and persists asynchronously", func() {
		entry := s.freshEntry(sess)
		touched := *entry
		touched.LastActivity = now
		persisted := make(chan struct{})

		s.mockCache.EXPECT().Get(gomock.Any(), sess.ID).Return(entry, true)
		s.mockCache.EXPECT().Touch(gomock.Any(), sess.ID, now).Return(&touched, true)
		s.mockRepo.EXPECT().Touch(gomock.Any(), sess.ID, now).Return(nil)
		s.mockCache.EXPECT().MarkPersisted(gomock.Any(), sess.ID, now).Do(
			func(context.Context, id.SessionID, time.Time) { close(persisted) })

		snap, err := s.service.Validate(s.ctx, sess.ID, true)

		s.Require().NoError(err)
		s.Equal(now, snap.LastActivity)
		s.Equal(sess.CredentialID, snap.CredentialID)
		s.Eventually(func() bool {
			select {
			case <-persisted:
				return true
			default:
				return false
			}
		}, time.Second, 5*time.Millisecond)
	})

	s.Run("no bump leaves activity alone", func() {
		s.mockCache.EXPECT().Get(gomock.Any(), sess.ID).Return(s.freshEntry(sess), true)

		snap, err := s.service.Validate(s.ctx, sess.ID, false)

		s.Require().NoError(err)
		s.Equal(testutil.Epoch, snap.LastActivity)
	})

	s.Equal(2.0, promtestutil.ToFloat64(s.metrics.ValidateOutcomes.WithLabelValues(metrics.OutcomeFastPath)))
}

func (s *ServiceSuite) TestValidateThrottlesActivityWrites() {
	s.Require().NoError(s.service.Shutdown(s.ctx))
	s.cfg.ActivityWriteInterval = 5 * time.Minute
	s.service = s.newService()

	sess := s.activeSession("ak_1", testutil.Epoch)
	s.clock.Advance(time.Minute)
	now := s.clock.Now()
	entry := s.freshEntry(sess)
	touched := *entry
	touched.LastActivity = now

	s.mockCache.EXPECT().Get(gomock.Any(), sess.ID).Return(entry, true)
	s.mockCache.EXPECT().Touch(gomock.Any(), sess.ID, now).Return(&touched, true)
	// No repo.Touch: the store holds activity from one minute ago.

	_, err := s.service.Validate(s.ctx, sess.ID, true)

	s.Require().NoError(err)
}

func (s *ServiceSuite) TestValidateStoreFallback() {
	sess := s.activeSession("ak_1", testutil.Epoch)

	s.Run("stale cache entry defers to a live store record", func() {
		s.clock.Advance(30 * time.Minute)
		stale := s.freshEntry(sess)
		stale.LastActivity = testutil.Epoch.Add(-2 * time.Hour)
		live := *sess
		live.LastActivity = s.clock.Now().Add(-time.Minute)

		s.mockCache.EXPECT().Get(gomock.Any(), sess.ID).Return(stale, true)
		s.mockRepo.EXPECT().FindActiveByID(gomock.Any(), sess.ID, s.clock.Now().Add(-DefaultSessionTimeout)).Return(&live, nil)
		s.mockCache.EXPECT().Put(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e *cache.Entry) {
			s.Equal(live.LastActivity, e.LastActivity)
		})
		s.mockRepo.EXPECT().FilterActive(gomock.Any(), []id.SessionID{sess.ID}).Return([]id.SessionID{sess.ID}, nil)

		snap, err := s.service.Validate(s.ctx, sess.ID, false)

		s.Require().NoError(err)
		s.Equal(live.LastActivity, snap.LastActivity)
	})

	s.Run("cache miss warms the cache and queues the bump", func() {
		live := *sess
		now := s.clock.Now()
		done := make(chan struct{})

		s.mockCache.EXPECT().Get(gomock.Any(), sess.ID).Return(nil, false)
		s.mockRepo.EXPECT().FindActiveByID(gomock.Any(), sess.ID, gomock.Any()).Return(&live, nil)
		s.mockCache.EXPECT().Put(gomock.Any(), gomock.Any()).Do(func(_ context.Context, e *cache.Entry) {
			s.Equal(now, e.LastActivity)
			s.Equal(sess.LastActivity, e.PersistedAt)
		})
		s.mockRepo.EXPECT().FilterActive(gomock.Any(), []id.SessionID{sess.ID}).Return([]id.SessionID{sess.ID}, nil)
		s.mockRepo.EXPECT().Touch(gomock.Any(), sess.ID, now).Return(nil)
		s.mockCache.EXPECT().MarkPersisted(gomock.Any(), sess.ID, now).Do(
			func(context.Context, id.SessionID, time.Time) { close(done) })

		snap, err := s.service.Validate(s.ctx, sess.ID, true)

		s.Require().NoError(err)
		s.Equal(now, snap.LastActivity)
		s.Eventually(func() bool {
			select {
			case <-done:
				return true
			default:
				return false
			}
		}, time.Second, 5*time.Millisecond)
	})
}

func (s *ServiceSuite) TestValidateDropsEntryForSessionClosedDuringLookup() {
	sess := s.activeSession("ak_1", testutil.Epoch)
	closed := *sess
	closed.Deactivate(models.NoteClosed, testutil.Epoch)

	s.Run("record closed after the lookup", func() {
		live := *sess
		gomock.InOrder(
			s.mockCache.EXPECT().Get(gomock.Any(), sess.ID).Return(nil, false),
			s.mockRepo.EXPECT().FindActiveByID(gomock.Any(), sess.ID, gomock.Any()).Return(&live, nil),
			s.mockCache.EXPECT().Put(gomock.Any(), gomock.Any()),
			s.mockRepo.EXPECT().FilterActive(gomock.Any(), []id.SessionID{sess.ID}).Return([]id.SessionID{}, nil),
			s.mockCache.EXPECT().Remove(gomock.Any(), sess.ID).Return(true),
			s.mockRepo.EXPECT().FindByID(gomock.Any(), sess.ID).Return(&closed, nil),
		)

		_, err := s.service.Validate(s.ctx, sess.ID, true)

		s.True(dErrors.HasCode(err, dErrors.CodeSessionExpired))
	})

	s.Run("recheck failure drops the entry", func() {
		live := *sess
		gomock.InOrder(
			s.mockCache.EXPECT().Get(gomock.Any(), sess.ID).Return(nil, false),
			s.mockRepo.EXPECT().FindActiveByID(gomock.Any(), sess.ID, gomock.Any()).Return(&live, nil),
			s.mockCache.EXPECT().Put(gomock.Any(), gomock.Any()),
			s.mockRepo.EXPECT().FilterActive(gomock.Any(), []id.SessionID{sess.ID}).Return(nil, errors.New("timeout")),
			s.mockCache.EXPECT().Remove(gomock.Any(), sess.ID).Return(true),
		)

		_, err := s.service.Validate(s.ctx, sess.ID, false)

		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestValidateFailures() {
	s.Run("unknown session is invalid", func() {
		sessionID := s.newSessionID()
		s.mockCache.EXPECT().Get(gomock.Any(), sessionID).Return(nil, false)
		s.mockRepo.EXPECT().FindActiveByID(gomock.Any(), sessionID, gomock.Any()).Return(nil, sentinel.ErrNotFound)
		s.mockCache.EXPECT().Remove(gomock.Any(), sessionID).Return(false)
		s.mockRepo.EXPECT().FindByID(gomock.Any(), sessionID).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Validate(s.ctx, sessionID, true)

		s.True(dErrors.HasCode(err, dErrors.CodeSessionInvalid))
		s.Equal(dErrors.KindNotFound, dErrors.KindOf(dErrors.CodeOf(err)))
	})

	s.Run("closed session is expired without another deactivation", func() {
		closed := s.activeSession("ak_1", testutil.Epoch)
		closed.Deactivate(models.NoteClosed, testutil.Epoch)
		s.mockCache.EXPECT().Get(gomock.Any(), closed.ID).Return(nil, false)
		s.mockRepo.EXPECT().FindActiveByID(gomock.Any(), closed.ID, gomock.Any()).Return(nil, sentinel.ErrNotFound)
		s.mockCache.EXPECT().Remove(gomock.Any(), closed.ID).Return(false)
		s.mockRepo.EXPECT().FindByID(gomock.Any(), closed.ID).Return(closed, nil)

		_, err := s.service.Validate(s.ctx, closed.ID, true)

		s.True(dErrors.HasCode(err, dErrors.CodeSessionExpired))
	})

	s.Run("stale active session is deactivated before failing", func() {
		stale := s.activeSession("ak_1", testutil.Epoch)
		s.clock.Advance(2 * time.Hour)
		now := s.clock.Now()
		expired := *stale
		expired.Deactivate(models.NoteExpired, now)

		s.mockCache.EXPECT().Get(gomock.Any(), stale.ID).Return(s.freshEntry(stale), true)
		s.mockRepo.EXPECT().FindActiveByID(gomock.Any(), stale.ID, gomock.Any()).Return(nil, sentinel.ErrNotFound)
		s.mockCache.EXPECT().Remove(gomock.Any(), stale.ID).Return(true).Times(2)
		s.mockRepo.EXPECT().FindByID(gomock.Any(), stale.ID).Return(stale, nil)
		s.mockRepo.EXPECT().Expire(gomock.Any(), stale.ID, now.Add(-DefaultSessionTimeout), now).Return(&expired, nil)
		s.mockPublisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r audit.Record) error {
			s.Equal(audit.EventSessionExpired, r.Action)
			s.Equal(models.NoteExpired, r.Reason)
			return nil
		})

		_, err := s.service.Validate(s.ctx, stale.ID, true)

		s.True(dErrors.HasCode(err, dErrors.CodeSessionExpired))
		s.Equal(dErrors.KindExpired, dErrors.KindOf(dErrors.CodeOf(err)))
	})

	s.Run("store failure is a system error", func() {
		sessionID := s.newSessionID()
		s.mockCache.EXPECT().Get(gomock.Any(), sessionID).Return(nil, false)
		s.mockRepo.EXPECT().FindActiveByID(gomock.Any(), sessionID, gomock.Any()).Return(nil, errors.New("timeout"))

		_, err := s.service.Validate(s.ctx, sessionID, true)

		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
