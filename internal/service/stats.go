package service

import (
	"context"

	"github.com/boni03200-lang/gomasecure/internal/domain"
)

type statsService struct {
	repo StatsRepository
}

func NewStatsService(repo StatsRepository) StatsService {
	return &statsService{repo: repo}
}

func (s *statsService) GetStats(ctx context.Context, req domain.StatsRequest) (*domain.EngineStats, error) {
	minutes := req.Minutes
	if minutes <= 0 {
		minutes = 60
	}

	counts, err := s.repo.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.CountRecentReports(ctx, minutes)
	if err != nil {
		return nil, err
	}

	return &domain.EngineStats{
		Pending:       counts[domain.StatusPending],
		Validated:     counts[domain.StatusValidated],
		Rejected:      counts[domain.StatusRejected],
		Resolved:      counts[domain.StatusResolved],
		RecentReports: recent,
	}, nil
}
