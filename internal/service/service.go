package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/boni03200-lang/gomasecure/internal/domain"
)

//go:generate mockgen -source=service.go -destination=mocks/mock.go

// IncidentRepository is the engine's view of the incident store. Every
// mutation of an existing record goes through UpdateCAS so concurrent
// reports, votes and authority actions serialize per record.
type IncidentRepository interface {
	Create(ctx context.Context, incident *domain.Incident) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error)
	UpdateCAS(ctx context.Context, incident *domain.Incident) error
	Candidates(ctx context.Context, tp domain.IncidentType, lat, lng, radiusM float64) ([]*domain.Incident, error)
	ListActive(ctx context.Context, tp domain.IncidentType) ([]*domain.Incident, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Get(ctx context.Context, uid uuid.UUID) (*domain.User, error)
	AdjustReputation(ctx context.Context, uid uuid.UUID, delta int) (old, cur int, err error)
}

type StatsRepository interface {
	StatusCounts(ctx context.Context) (map[domain.IncidentStatus]int64, error)
	CountRecentReports(ctx context.Context, minutes int) (int64, error)
}

type NotifyQueue interface {
	Enqueue(ctx context.Context, intent domain.NotificationIntent) error
}

type IncidentCache interface {
	GetActive(ctx context.Context) ([]domain.Incident, error)
	SetActive(ctx context.Context, incidents []domain.Incident, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// Report submission: merge-or-create.
type ReportService interface {
	SubmitReport(ctx context.Context, req domain.SubmitReportRequest) (*domain.Incident, error)
}

// Votes and authority actions against the validation state machine.
type VoteService interface {
	CastVote(ctx context.Context, incidentID uuid.UUID, req domain.CastVoteRequest) (*domain.Incident, error)
	SetStatus(ctx context.Context, incidentID uuid.UUID, req domain.SetStatusRequest) (*domain.Incident, error)
}

// Account registration: new users enter with a role-seeded reputation.
type AccountService interface {
	Register(ctx context.Context, req domain.RegisterUserRequest) (*domain.User, error)
}

type QueryService interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error)
	ListActive(ctx context.Context, req domain.ListIncidentsRequest) ([]domain.Incident, error)
	Reputation(ctx context.Context, uid uuid.UUID) (int, error)
}

type StatsService interface {
	GetStats(ctx context.Context, req domain.StatsRequest) (*domain.EngineStats, error)
}

type LedgerService interface {
	Adjust(ctx context.Context, uid uuid.UUID, delta int, reason string) (int, error)
	SendPromotionInvite(ctx context.Context, uid uuid.UUID) error
}

type Service struct {
	Reports  ReportService
	Votes    VoteService
	Query    QueryService
	Stats    StatsService
	Ledger   LedgerService
	Accounts AccountService
}

func NewService(
	reports ReportService,
	votes VoteService,
	query QueryService,
	stats StatsService,
	ledger LedgerService,
	accounts AccountService,
) *Service {
	return &Service{
		Reports:  reports,
		Votes:    votes,
		Query:    query,
		Stats:    stats,
		Ledger:   ledger,
		Accounts: accounts,
	}
}

// emitIntent is fire-and-forget: a delivery problem never fails the operation
// that produced the intent.
func emitIntent(ctx context.Context, queue NotifyQueue, logger *slog.Logger, intent domain.NotificationIntent) {
	if intent.CreatedAt.IsZero() {
		intent.CreatedAt = time.Now().UTC()
	}
	if err := queue.Enqueue(ctx, intent); err != nil {
		logger.Error("enqueue notification intent failed",
			slog.String("audience", intent.Audience),
			slog.String("title", intent.Title),
			slog.Any("error", err),
		)
	}
}
