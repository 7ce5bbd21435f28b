package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/boni03200-lang/gomasecure/internal/domain"
)

type IncidentRepository interface {
	Create(ctx context.Context, incident *domain.Incident) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error)
	// UpdateCAS writes the record only when incident.Version still matches the
	// stored row; returns e.ErrConflict on a version mismatch.
	UpdateCAS(ctx context.Context, incident *domain.Incident) error
	// Candidates returns mergeable incidents of the same type near (lat,lng),
	// ordered by created_at ASC, id ASC. The ordering is a contract: the
	// correlation engine takes the first match in this order.
	Candidates(ctx context.Context, tp domain.IncidentType, lat, lng, radiusM float64) ([]*domain.Incident, error)
	ListActive(ctx context.Context, tp domain.IncidentType) ([]*domain.Incident, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Get(ctx context.Context, uid uuid.UUID) (*domain.User, error)
	// AdjustReputation applies a clamped delta in a single statement and
	// returns the score before and after. old == cur means no write happened.
	AdjustReputation(ctx context.Context, uid uuid.UUID, delta int) (old, cur int, err error)
}

type StatsRepository interface {
	StatusCounts(ctx context.Context) (map[domain.IncidentStatus]int64, error)
	CountRecentReports(ctx context.Context, minutes int) (int64, error)
}
