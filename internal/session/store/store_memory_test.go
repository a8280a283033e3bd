package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"mcpgate/internal/session/models"
	id "mcpgate/pkg/domain"
	"mcpgate/pkg/platform/sentinel"
	"mcpgate/pkg/testutil"

	"github.com/stretchr/testify/suite"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) newSession(credentialID id.CredentialID, lastActivity time.Time) *models.Session {
	sessionID, err := id.NewSessionID()
	s.Require().NoError(err)
	sess := models.NewSession(sessionID, &models.CreateRequest{
		CredentialID:   credentialID,
		PrincipalID:    "user-1",
		ClientInfo:     json.RawMessage(`{"name":"cli","version":"1"}`),
		Capabilities:   json.RawMessage(`{}`),
		ConnectionType: models.ConnectionTypeSSE,
	}, lastActivity)
	s.Require().NoError(s.store.Save(s.ctx, sess))
	return sess
}

func (s *InMemoryStoreSuite) TestSaveAndFind() {
	sess := s.newSession("ak_1", s.now)

	found, err := s.store.FindByID(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(sess.ID, found.ID)
	s.Equal(id.CredentialID("ak_1"), found.CredentialID)

	s.Run("returned records are copies", func() {
		found.IsActive = false
		again, err := s.store.FindByID(s.ctx, sess.ID)
		s.Require().NoError(err)
		s.True(again.IsActive)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.store.FindByID(s.ctx, "mcp_missing")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestSaveRejectsReusedID() {
	sess := s.newSession("ak_1", s.now)

	err := s.store.Save(s.ctx, sess)
	s.ErrorIs(err, sentinel.ErrConflict)

	s.Run("identifier stays reserved after purge", func() {
		_, err := s.store.Deactivate(s.ctx, sess.ID, models.NoteClosed, s.now)
		s.Require().NoError(err)
		purged, err := s.store.DeleteInactiveBefore(s.ctx, s.now.Add(time.Hour))
		s.Require().NoError(err)
		s.Equal(1, purged)

		exists, err := s.store.ExistsByID(s.ctx, sess.ID)
		s.Require().NoError(err)
		s.True(exists)
		s.ErrorIs(s.store.Save(s.ctx, sess), sentinel.ErrConflict)
	})
}

func (s *InMemoryStoreSuite) TestFindActiveByIDHonoursCutoff() {
	sess := s.newSession("ak_1", s.now)

	_, err := s.store.FindActiveByID(s.ctx, sess.ID, s.now)
	s.NoError(err, "cutoff equal to last activity is still live")

	_, err = s.store.FindActiveByID(s.ctx, sess.ID, s.now.Add(time.Second))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestTouch() {
	sess := s.newSession("ak_1", s.now)

	s.Require().NoError(s.store.Touch(s.ctx, sess.ID, s.now.Add(time.Minute)))
	s.Require().NoError(s.store.Touch(s.ctx, sess.ID, s.now.Add(30*time.Second)))

	found, err := s.store.FindByID(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(s.now.Add(time.Minute), found.LastActivity, "older touch must not move the clock back")

	s.Run("touch never reactivates", func() {
		_, err := s.store.Deactivate(s.ctx, sess.ID, models.NoteClosed, s.now.Add(2*time.Minute))
		s.Require().NoError(err)

		err = s.store.Touch(s.ctx, sess.ID, s.now.Add(3*time.Minute))
		s.ErrorIs(err, sentinel.ErrNotFound)

		found, err := s.store.FindByID(s.ctx, sess.ID)
		s.Require().NoError(err)
		s.False(found.IsActive)
		s.Equal(s.now.Add(time.Minute), found.LastActivity)
	})

	s.Run("touch on unknown id is not found", func() {
		s.ErrorIs(s.store.Touch(s.ctx, "mcp_missing", s.now), sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestDeactivateIsConditional() {
	sess := s.newSession("ak_1", s.now)

	updated, err := s.store.Deactivate(s.ctx, sess.ID, models.NoteClosed, s.now)
	s.Require().NoError(err)
	s.False(updated.IsActive)
	s.Equal(models.NoteClosed, updated.Notes)
	s.Require().NotNil(updated.EndedAt)

	_, err = s.store.Deactivate(s.ctx, sess.ID, models.NoteExpired, s.now)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestExpireIsConditionalOnIdleness() {
	sess := s.newSession("ak_1", s.now)

	_, err := s.store.Expire(s.ctx, sess.ID, s.now, s.now.Add(time.Hour))
	s.ErrorIs(err, sentinel.ErrNotFound, "activity at the cutoff is not idle")

	expired, err := s.store.Expire(s.ctx, sess.ID, s.now.Add(time.Second), s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.False(expired.IsActive)
	s.Equal(models.NoteExpired, expired.Notes)

	_, err = s.store.Expire(s.ctx, sess.ID, s.now.Add(time.Second), s.now.Add(time.Hour))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestCredentialQueries() {
	a1 := s.newSession("ak_a", s.now)
	s.newSession("ak_a", s.now)
	s.newSession("ak_b", s.now)
	_, err := s.store.Deactivate(s.ctx, a1.ID, models.NoteClosed, s.now)
	s.Require().NoError(err)

	active, err := s.store.FindActiveByCredential(s.ctx, "ak_a")
	s.Require().NoError(err)
	s.Len(active, 1)

	count, err := s.store.CountActiveByCredential(s.ctx, "ak_a")
	s.Require().NoError(err)
	s.Equal(1, count)

	total, err := s.store.CountActive(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, total)

	revoked, err := s.store.DeactivateByCredential(s.ctx, "ak_a", models.NoteRevoked, s.now)
	s.Require().NoError(err)
	s.Len(revoked, 1)

	count, err = s.store.CountActiveByCredential(s.ctx, "ak_a")
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *InMemoryStoreSuite) TestExpiryAndPurge() {
	stale := s.newSession("ak_1", s.now.Add(-2*time.Hour))
	fresh := s.newSession("ak_1", s.now)
	cutoff := s.now.Add(-time.Hour)

	expired, err := s.store.FindExpiredBefore(s.ctx, cutoff)
	s.Require().NoError(err)
	s.Require().Len(expired, 1)
	s.Equal(stale.ID, expired[0].ID)

	s.Run("active sessions are never purged", func() {
		purged, err := s.store.DeleteInactiveBefore(s.ctx, s.now.Add(time.Hour))
		s.Require().NoError(err)
		s.Zero(purged)
	})

	_, err = s.store.Deactivate(s.ctx, stale.ID, models.NoteExpired, s.now)
	s.Require().NoError(err)

	purged, err := s.store.DeleteInactiveBefore(s.ctx, cutoff)
	s.Require().NoError(err)
	s.Equal(1, purged)

	_, err = s.store.FindByID(s.ctx, stale.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindByID(s.ctx, fresh.ID)
	s.NoError(err)
}

func (s *InMemoryStoreSuite) TestAggregates() {
	s.newSession("ak_1", s.now.Add(-30*time.Minute))
	recent := s.newSession("ak_2", s.now)
	closed := s.newSession("ak_3", s.now)
	_, err := s.store.Deactivate(s.ctx, closed.ID, models.NoteClosed, s.now)
	s.Require().NoError(err)

	since, err := s.store.CountActiveSince(s.ctx, s.now.Add(-15*time.Minute))
	s.Require().NoError(err)
	s.Equal(1, since)

	byType, err := s.store.CountActiveByConnectionType(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, byType[models.ConnectionTypeSSE])

	active, err := s.store.FilterActive(s.ctx, []id.SessionID{recent.ID, closed.ID, "mcp_missing"})
	s.Require().NoError(err)
	s.Equal([]id.SessionID{recent.ID}, active)
}

func (s *InMemoryStoreSuite) TestConcurrentDeactivateHasOneWinner() {
	sess := s.newSession("ak_1", s.now)

	result := testutil.RunConcurrent(20, func(int) error {
		_, err := s.store.Deactivate(s.ctx, sess.ID, models.NoteClosed, s.now)
		return err
	})

	s.Equal(int32(1), result.Successes)
	s.Equal(int32(19), result.NotFounds)
}
