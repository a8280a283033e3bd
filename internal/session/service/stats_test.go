package service

import (
	"errors"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"mcpgate/internal/session/models"
	dErrors "mcpgate/pkg/domain-errors"
	"mcpgate/pkg/testutil"
)

func (s *ServiceSuite) TestStats() {
	s.Run("aggregates store and cache counts", func() {
		s.mockAdmitter.EXPECT().Ceiling().Return(200)
		s.mockRepo.EXPECT().CountActive(gomock.Any()).Return(50, nil)
		s.mockRepo.EXPECT().CountActiveSince(gomock.Any(), testutil.Epoch.Add(-15*time.Minute)).Return(12, nil)
		s.mockRepo.EXPECT().CountActiveByConnectionType(gomock.Any()).Return(map[models.ConnectionType]int{
			models.ConnectionTypeHTTP: 30,
			models.ConnectionTypeSSE:  20,
		}, nil)
		s.mockCache.EXPECT().Len(gomock.Any()).Return(47)

		stats, err := s.service.Stats(s.ctx)

		s.Require().NoError(err)
		s.Equal(50, stats.ActiveCount)
		s.Equal(12, stats.RecentlyActiveCount)
		s.Equal(47, stats.CacheSize)
		s.Equal(200, stats.Ceiling)
		s.InDelta(25.0, stats.UtilizationPercent, 0.001)
		s.Equal(0, stats.ConnectionTypes[models.ConnectionTypeWebSocket])
		s.Len(stats.ConnectionTypes, 3)
		s.Equal(testutil.Epoch, stats.GeneratedAt)
		s.Equal(50.0, promtestutil.ToFloat64(s.metrics.ActiveSessions))
	})

	s.Run("store failure is internal", func() {
		s.mockAdmitter.EXPECT().Ceiling().Return(200)
		s.mockRepo.EXPECT().CountActive(gomock.Any()).Return(0, errors.New("db down"))
		s.mockRepo.EXPECT().CountActiveSince(gomock.Any(), gomock.Any()).Return(0, nil).AnyTimes()
		s.mockRepo.EXPECT().CountActiveByConnectionType(gomock.Any()).Return(nil, nil).AnyTimes()
		s.mockCache.EXPECT().Len(gomock.Any()).Return(0).AnyTimes()

		_, err := s.service.Stats(s.ctx)

		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
