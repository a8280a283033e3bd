package service

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"mcpgate/internal/session/models"
	"mcpgate/pkg/platform/tracer"
)

// Stats aggregates active-session counts for operators. The store queries
// run concurrently and are not mutually consistent; counts are approximate.
func (s *Service) Stats(ctx context.Context) (_ *models.Stats, err error) {
	ctx, _, finish := s.observe(ctx, "stats", tracer.SpanSessionStats)
	defer func() { finish(err) }()

	now := s.now()
	stats := &models.Stats{
		Ceiling:     s.admission.Ceiling(),
		GeneratedAt: now,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repo.CountActive(gctx)
		stats.ActiveCount = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountActiveSince(gctx, now.Add(-s.cfg.RecentWindow))
		stats.RecentlyActiveCount = n
		return err
	})
	g.Go(func() error {
		byType, err := s.repo.CountActiveByConnectionType(gctx)
		stats.ConnectionTypes = byType
		return err
	})
	g.Go(func() error {
		stats.CacheSize = s.cache.Len(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, translateStoreError(err, "aggregate session stats")
	}

	if stats.ConnectionTypes == nil {
		stats.ConnectionTypes = map[models.ConnectionType]int{}
	}
	for _, ct := range models.ConnectionTypes {
		if _, ok := stats.ConnectionTypes[ct]; !ok {
			stats.ConnectionTypes[ct] = 0
		}
	}
	if stats.Ceiling > 0 {
		pct := float64(stats.ActiveCount) / float64(stats.Ceiling) * 100
		stats.UtilizationPercent = math.Round(pct*100) / 100
	}

	if s.metrics != nil {
		s.metrics.SetActive(stats.ActiveCount)
		s.metrics.SetCacheEntries(stats.CacheSize)
	}
	return stats, nil
}
