package service

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/boni03200-lang/gomasecure/internal/domain"
	"github.com/boni03200-lang/gomasecure/pkg/e"
)

type queryService struct {
	incidents IncidentRepository
	users     UserRepository
	cache     IncidentCache
	cacheTTL  time.Duration
	logger    *slog.Logger
}

func NewQueryService(
	incidents IncidentRepository,
	users UserRepository,
	cache IncidentCache,
	cacheTTL time.Duration,
	logger *slog.Logger,
) QueryService {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &queryService{
		incidents: incidents,
		users:     users,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

func (s *queryService) Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error) {
	return s.incidents.Get(ctx, id)
}

func (s *queryService) ListActive(ctx context.Context, req domain.ListIncidentsRequest) ([]domain.Incident, error) {
	const op = "service.Query.ListActive"

	tp := domain.IncidentType(req.Type)
	if req.Type != "" && !tp.Valid() {
		return nil, fmt.Errorf("%s: type %q: %w", op, req.Type, e.ErrInvalidInput)
	}

	// Only the unfiltered listing is cached; type filters are rare enough to
	// hit the store directly.
	if tp == "" {
		cached, err := s.cache.GetActive(ctx)
		if err != nil {
			s.logger.Warn("incident cache read failed", slog.Any("error", err))
		} else if cached != nil {
			return cached, nil
		}
	}

	list, err := s.incidents.ListActive(ctx, tp)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Incident, 0, len(list))
	for _, inc := range list {
		out = append(out, *inc)
	}

	if tp == "" {
		if err := s.cache.SetActive(ctx, out, s.cacheTTL); err != nil {
			s.logger.Warn("incident cache write failed", slog.Any("error", err))
		}
	}

	return out, nil
}

func (s *queryService) Reputation(ctx context.Context, uid uuid.UUID) (int, error) {
	u, err := s.users.Get(ctx, uid)
	if err != nil {
		return 0, err
	}
	return u.ReputationScore, nil
}
