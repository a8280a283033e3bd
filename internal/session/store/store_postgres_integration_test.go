//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"mcpgate/internal/session/models"
	"mcpgate/internal/session/store"
	id "mcpgate/pkg/domain"
	"mcpgate/pkg/platform/sentinel"
	"mcpgate/pkg/testutil"
	"mcpgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	ctx      context.Context
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "mcp_sessions", "mcp_issued_session_ids"))
	// Postgres keeps microseconds.
	s.now = time.Now().UTC().Truncate(time.Millisecond)
}

func (s *PostgresStoreSuite) newSession(credentialID id.CredentialID, at time.Time) *models.Session {
	sessionID, err := id.NewSessionID()
	s.Require().NoError(err)
	sess := models.NewSession(sessionID, testutil.NewCreateRequest(credentialID).Build(), at)
	s.Require().NoError(s.store.Save(s.ctx, sess))
	return sess
}

func (s *PostgresStoreSuite) TestSaveAndFind() {
	sess := s.newSession("ak_pg", s.now)

	found, err := s.store.FindActiveByID(s.ctx, sess.ID, s.now.Add(-time.Minute))
	s.Require().NoError(err)
	s.Equal(sess.CredentialID, found.CredentialID)
	s.Equal(models.ConnectionTypeHTTP, found.ConnectionType)
	s.JSONEq(string(sess.ClientInfo), string(found.ClientInfo))
	s.True(found.CreatedAt.Equal(sess.CreatedAt))
	s.Nil(found.EndedAt)

	exists, err := s.store.ExistsByID(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.True(exists)
}

func (s *PostgresStoreSuite) TestSaveDuplicateIsConflict() {
	sess := s.newSession("ak_pg", s.now)

	s.ErrorIs(s.store.Save(s.ctx, sess), sentinel.ErrConflict)

	s.Run("identifier stays reserved after purge", func() {
		_, err := s.store.Deactivate(s.ctx, sess.ID, models.NoteClosed, s.now)
		s.Require().NoError(err)
		purged, err := s.store.DeleteInactiveBefore(s.ctx, s.now.Add(time.Hour))
		s.Require().NoError(err)
		s.Equal(1, purged)

		s.ErrorIs(s.store.Save(s.ctx, sess), sentinel.ErrConflict)
	})
}

func (s *PostgresStoreSuite) TestTouchIsMonotonicAndConditional() {
	sess := s.newSession("ak_pg", s.now)

	s.Require().NoError(s.store.Touch(s.ctx, sess.ID, s.now.Add(time.Minute)))
	s.Require().NoError(s.store.Touch(s.ctx, sess.ID, s.now.Add(time.Second)))

	found, err := s.store.FindByID(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.True(found.LastActivity.Equal(s.now.Add(time.Minute)))

	_, err = s.store.Deactivate(s.ctx, sess.ID, models.NoteClosed, s.now.Add(2*time.Minute))
	s.Require().NoError(err)
	s.ErrorIs(s.store.Touch(s.ctx, sess.ID, s.now.Add(3*time.Minute)), sentinel.ErrNotFound)

	found, err = s.store.FindByID(s.ctx, sess.ID)
	s.Require().NoError(err)
	s.False(found.IsActive)
	s.Equal(models.NoteClosed, found.Notes)
}

func (s *PostgresStoreSuite) TestDeactivateHasOneWinner() {
	sess := s.newSession("ak_pg", s.now)

	result := testutil.RunConcurrent(10, func(int) error {
		_, err := s.store.Deactivate(s.ctx, sess.ID, models.NoteClosed, s.now)
		return err
	})

	s.Equal(int32(1), result.Successes)
	s.Equal(int32(9), result.NotFounds)
}

func (s *PostgresStoreSuite) TestExpireSkipsRecentlyTouched() {
	sess := s.newSession("ak_pg", s.now.Add(-2*time.Hour))
	s.Require().NoError(s.store.Touch(s.ctx, sess.ID, s.now))

	_, err := s.store.Expire(s.ctx, sess.ID, s.now.Add(-time.Hour), s.now)
	s.ErrorIs(err, sentinel.ErrNotFound)

	expired, err := s.store.Expire(s.ctx, sess.ID, s.now.Add(time.Second), s.now)
	s.Require().NoError(err)
	s.Equal(models.NoteExpired, expired.Notes)
}

func (s *PostgresStoreSuite) TestCountsAndSweepQueries() {
	stale := s.newSession("ak_a", s.now.Add(-2*time.Hour))
	fresh := s.newSession("ak_a", s.now)
	s.newSession("ak_b", s.now)

	total, err := s.store.CountActive(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, total)

	perCredential, err := s.store.CountActiveByCredential(s.ctx, "ak_a")
	s.Require().NoError(err)
	s.Equal(2, perCredential)

	recent, err := s.store.CountActiveSince(s.ctx, s.now.Add(-15*time.Minute))
	s.Require().NoError(err)
	s.Equal(2, recent)

	byType, err := s.store.CountActiveByConnectionType(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, byType[models.ConnectionTypeHTTP])

	expired, err := s.store.FindExpiredBefore(s.ctx, s.now.Add(-time.Hour))
	s.Require().NoError(err)
	s.Require().Len(expired, 1)
	s.Equal(stale.ID, expired[0].ID)

	revoked, err := s.store.DeactivateByCredential(s.ctx, "ak_a", models.NoteRevoked, s.now)
	s.Require().NoError(err)
	s.ElementsMatch([]id.SessionID{stale.ID, fresh.ID}, revoked)

	active, err := s.store.FilterActive(s.ctx, []id.SessionID{stale.ID, fresh.ID})
	s.Require().NoError(err)
	s.Empty(active)

	purged, err := s.store.DeleteInactiveBefore(s.ctx, s.now.Add(-time.Hour))
	s.Require().NoError(err)
	s.Equal(1, purged)
}
