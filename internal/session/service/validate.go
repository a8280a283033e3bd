package service

import (
	"context"
	"errors"
	"time"

	"mcpgate/internal/session/cache"
	"mcpgate/internal/session/metrics"
	"mcpgate/internal/session/models"
	id "mcpgate/pkg/domain"
	"mcpgate/pkg/platform/sentinel"
	"mcpgate/pkg/platform/tracer"
)

// Validate reports whether sessionID is live and, when bumpActivity is set,
// extends it.
//
// A fresh cache entry answers without touching the store; the store write
// for the bump is queued and may lag. Anything else is decided by the store.
// Lapsed sessions fail with SESSION_EXPIRED and are deactivated before
// returning; identifiers the store has never seen fail with SESSION_INVALID.
func (s *Service) Validate(ctx context.Context, sessionID id.SessionID, bumpActivity bool) (_ *models.Snapshot, err error) {
	ctx, span, finish := s.observe(ctx, "validate", tracer.SpanSessionValidate,
		tracer.String(tracer.AttrSessionID, sessionID.String()),
		tracer.Bool(tracer.AttrBump, bumpActivity),
	)
	defer func() { finish(err) }()

	if _, parseErr := id.ParseSessionID(sessionID.String()); parseErr != nil {
		s.countValidate(metrics.OutcomeInvalid)
		return nil, errSessionInvalid
	}

	now := s.now()
	cutoff := s.cutoff(now)

	if entry, ok := s.cache.Get(ctx, sessionID); ok && entry.FreshAt(cutoff) {
		span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, true))
		if bumpActivity {
			if touched, ok := s.cache.Touch(ctx, sessionID, now); ok {
				entry = touched
				s.schedulePersist(ctx, entry, now)
			}
		}
		s.countValidate(metrics.OutcomeFastPath)
		return entry.Snapshot(), nil
	}
	span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, false))

	session, err := s.repo.FindActiveByID(ctx, sessionID, cutoff)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, s.rejectLapsed(ctx, sessionID, now)
	}
	if err != nil {
		s.countValidate(metrics.OutcomeError)
		return nil, translateStoreError(err, "look up session")
	}

	entry := cache.EntryFromSession(session)
	bumped := bumpActivity && session.RecordActivity(now)
	if bumped {
		entry.LastActivity = now
	}
	s.cache.Put(ctx, entry)
	if err := s.confirmActive(ctx, sessionID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, s.rejectLapsed(ctx, sessionID, now)
		}
		s.countValidate(metrics.OutcomeError)
		return nil, translateStoreError(err, "look up session")
	}
	if bumped {
		s.schedulePersist(ctx, entry, now)
	}
	s.countValidate(metrics.OutcomeStoreHit)
	return session.Snapshot(), nil
}

// confirmActive re-reads the store after a cache fill. A close that lands
// between the lookup and the Put removes its entry before the Put runs, so
// the entry is only kept once the record is seen active afterwards.
func (s *Service) confirmActive(ctx context.Context, sessionID id.SessionID) error {
	active, err := s.repo.FilterActive(ctx, []id.SessionID{sessionID})
	if err != nil {
		s.cache.Remove(ctx, sessionID)
		return err
	}
	if len(active) == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// rejectLapsed runs when the store has no live record. It tells an unknown
// id apart from a lapsed one, deactivating stale-but-active records on the
// way out so they never validate again.
func (s *Service) rejectLapsed(ctx context.Context, sessionID id.SessionID, now time.Time) error {
	s.cache.Remove(ctx, sessionID)

	session, err := s.repo.FindByID(ctx, sessionID)
	if errors.Is(err, sentinel.ErrNotFound) {
		s.countValidate(metrics.OutcomeInvalid)
		return errSessionInvalid
	}
	if err != nil {
		s.countValidate(metrics.OutcomeError)
		return translateStoreError(err, "look up session")
	}

	if session.IsActive {
		if _, expireErr := s.expire(ctx, session.ID, now); expireErr != nil {
			s.logger.WarnContext(ctx, "failed to deactivate lapsed session",
				"session_id", sessionID,
				"error", expireErr,
			)
		}
	}
	s.countValidate(metrics.OutcomeExpired)
	return errSessionExpired
}

// schedulePersist queues a store touch unless the store already holds
// activity within ActivityWriteInterval of at.
func (s *Service) schedulePersist(ctx context.Context, entry *cache.Entry, at time.Time) {
	if interval := s.cfg.ActivityWriteInterval; interval > 0 && at.Sub(entry.PersistedAt) < interval {
		return
	}
	s.writer.enqueue(ctx, entry.SessionID, at)
}
