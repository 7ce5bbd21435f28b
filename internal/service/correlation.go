package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/boni03200-lang/gomasecure/internal/domain"
	"github.com/boni03200-lang/gomasecure/internal/geo"
	"github.com/boni03200-lang/gomasecure/pkg/e"
)

// CorrelationService decides whether a fresh report corroborates an existing
// incident or opens a new one. Candidates arrive ordered by creation time and
// the first geo match wins; concurrent merges against the same incident
// serialize on the store's version check.
type CorrelationService struct {
	incidents  IncidentRepository
	users      UserRepository
	scoring    *ScoringCoordinator
	queue      NotifyQueue
	cache      IncidentCache
	radii      geo.RadiusTable
	mergeBonus int
	logger     *slog.Logger
}

func NewCorrelationService(
	incidents IncidentRepository,
	users UserRepository,
	scoring *ScoringCoordinator,
	queue NotifyQueue,
	cache IncidentCache,
	radii geo.RadiusTable,
	mergeBonus int,
	logger *slog.Logger,
) *CorrelationService {
	if radii == nil {
		radii = geo.DefaultRadii()
	}
	if mergeBonus <= 0 {
		mergeBonus = 10
	}
	return &CorrelationService{
		incidents:  incidents,
		users:      users,
		scoring:    scoring,
		queue:      queue,
		cache:      cache,
		radii:      radii,
		mergeBonus: mergeBonus,
		logger:     logger,
	}
}

func (s *CorrelationService) SubmitReport(ctx context.Context, req domain.SubmitReportRequest) (*domain.Incident, error) {
	const op = "service.Correlation.SubmitReport"

	reporterID, err := uuid.Parse(req.ReporterID)
	if err != nil {
		return nil, fmt.Errorf("%s: reporter_id: %w", op, e.ErrInvalidInput)
	}
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%s: type %q: %w", op, req.Type, e.ErrInvalidInput)
	}
	if req.Lat < -90 || req.Lat > 90 || req.Lng < -180 || req.Lng > 180 {
		return nil, fmt.Errorf("%s: %w", op, e.ErrInvalidCoordinates)
	}

	reporter, err := s.users.Get(ctx, reporterID)
	if err != nil {
		return nil, err
	}
	if reporter.Status == domain.UserBanned {
		return nil, fmt.Errorf("%s: reporter banned: %w", op, e.ErrForbidden)
	}

	candidates, err := s.incidents.Candidates(ctx, req.Type, req.Lat, req.Lng, s.radii.For(req.Type))
	if err != nil {
		return nil, err
	}

	for _, cand := range candidates {
		if !geo.IsMergeCandidate(cand, req.Type, req.Lat, req.Lng, s.radii) {
			continue
		}
		inc, merged, err := s.mergeInto(ctx, cand, req, reporter)
		if err != nil {
			return nil, err
		}
		if merged {
			return inc, nil
		}
		// The candidate left mergeable state between the search and the
		// write; fall through to creation.
		break
	}

	return s.createNew(ctx, req, reporter)
}

// mergeInto folds the report into cand. Returns merged=false when cand is no
// longer a merge target after a conflicting write refreshed it.
func (s *CorrelationService) mergeInto(ctx context.Context, cand *domain.Incident, req domain.SubmitReportRequest, reporter *domain.User) (*domain.Incident, bool, error) {
	const op = "service.Correlation.mergeInto"

	for attempt := 0; ; attempt++ {
		if cand.HasReporter(reporter.UID) {
			// Idempotent re-report: same reporter, same event, no change.
			return cand, true, nil
		}

		upd := *cand
		upd.Reporters = append(append([]uuid.UUID{}, cand.Reporters...), reporter.UID)
		upd.ReportCount = len(upd.Reporters)
		upd.Likes = append([]uuid.UUID{}, cand.Likes...)
		upd.Dislikes = append([]uuid.UUID{}, cand.Dislikes...)
		upd.ReliabilityScore = domain.ClampScore(cand.ReliabilityScore + s.mergeBonus)
		upd.UpdatedAt = time.Now().UTC()

		err := s.incidents.UpdateCAS(ctx, &upd)
		if err == nil {
			s.logger.Info("report merged",
				slog.String("incident_id", upd.ID.String()),
				slog.String("reporter_id", reporter.UID.String()),
				slog.Int("report_count", upd.ReportCount),
			)
			s.invalidateCache(ctx)
			emitIntent(ctx, s.queue, s.logger, domain.NotificationIntent{
				Audience:          reporter.UID.String(),
				Kind:              domain.NotifyInfo,
				Title:             "Report merged",
				Message:           "A similar incident was already reported nearby. Your report strengthens the alert.",
				RelatedIncidentID: upd.ID,
			})
			return &upd, true, nil
		}

		if errors.Is(err, e.ErrConflict) && attempt == 0 {
			fresh, gerr := s.incidents.Get(ctx, cand.ID)
			if gerr != nil {
				return nil, false, gerr
			}
			if !geo.IsMergeCandidate(fresh, req.Type, req.Lat, req.Lng, s.radii) {
				return nil, false, nil
			}
			cand = fresh
			continue
		}

		return nil, false, e.Wrap(op, err)
	}
}

func (s *CorrelationService) createNew(ctx context.Context, req domain.SubmitReportRequest, reporter *domain.User) (*domain.Incident, error) {
	now := time.Now().UTC()
	trusted := reporter.Role.Trusted()

	inc := &domain.Incident{
		ID:               uuid.New(),
		Type:             req.Type,
		Description:      req.Description,
		Lat:              req.Lat,
		Lng:              req.Lng,
		Status:           domain.StatusPending,
		ReporterID:       reporter.UID,
		Reporters:        []uuid.UUID{reporter.UID},
		ReportCount:      1,
		Likes:            []uuid.UUID{},
		Dislikes:         []uuid.UUID{},
		ReliabilityScore: domain.ClampScore(reporter.ReputationScore),
		MediaRef:         req.MediaRef,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if trusted {
		// Trusted-reporter fast path: no peer votes required.
		inc.Status = domain.StatusValidated
		inc.ValidatedBy = reporter.UID.String()
	}

	if err := s.incidents.Create(ctx, inc); err != nil {
		return nil, err
	}

	s.logger.Info("incident created",
		slog.String("incident_id", inc.ID.String()),
		slog.String("type", string(inc.Type)),
		slog.String("status", string(inc.Status)),
		slog.String("reporter_id", reporter.UID.String()),
	)
	s.invalidateCache(ctx)

	title, kind := "New incident", domain.NotifyAction
	if trusted {
		title, kind = "Authority-confirmed incident", domain.NotifyAlert
	}
	emitIntent(ctx, s.queue, s.logger, domain.NotificationIntent{
		Audience:          domain.AudienceAll,
		Kind:              kind,
		Title:             title,
		Message:           fmt.Sprintf("%s reported nearby.", inc.Type),
		RelatedIncidentID: inc.ID,
	})

	if trusted {
		s.scoring.TrustedReportBonus(ctx, reporter.UID)
	}

	return inc, nil
}

func (s *CorrelationService) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("incident cache invalidate failed", slog.Any("error", err))
	}
}
