package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/boni03200-lang/gomasecure/internal/domain"
	"github.com/boni03200-lang/gomasecure/pkg/e"
)

// ValidationService drives incident status through the state machine:
//
//	PENDING -> VALIDATED | REJECTED
//	VALIDATED -> RESOLVED
//
// REJECTED and RESOLVED are terminal. Votes are only legal while PENDING;
// reaching the like threshold auto-validates on behalf of "system".
type ValidationService struct {
	incidents IncidentRepository
	users     UserRepository
	scoring   *ScoringCoordinator
	queue     NotifyQueue
	cache     IncidentCache

	threshold    int
	likeDelta    int
	dislikeDelta int

	logger *slog.Logger
}

func NewValidationService(
	incidents IncidentRepository,
	users UserRepository,
	scoring *ScoringCoordinator,
	queue NotifyQueue,
	cache IncidentCache,
	threshold, likeDelta, dislikeDelta int,
	logger *slog.Logger,
) *ValidationService {
	if threshold <= 0 {
		threshold = 3
	}
	if likeDelta == 0 {
		likeDelta = 10
	}
	if dislikeDelta == 0 {
		dislikeDelta = -15
	}
	return &ValidationService{
		incidents:    incidents,
		users:        users,
		scoring:      scoring,
		queue:        queue,
		cache:        cache,
		threshold:    threshold,
		likeDelta:    likeDelta,
		dislikeDelta: dislikeDelta,
		logger:       logger,
	}
}

func (s *ValidationService) CastVote(ctx context.Context, incidentID uuid.UUID, req domain.CastVoteRequest) (*domain.Incident, error) {
	const op = "service.Validation.CastVote"

	voterID, err := uuid.Parse(req.VoterID)
	if err != nil {
		return nil, fmt.Errorf("%s: voter_id: %w", op, e.ErrInvalidInput)
	}
	if !req.Vote.Valid() {
		return nil, fmt.Errorf("%s: vote %q: %w", op, req.Vote, e.ErrInvalidInput)
	}

	voter, err := s.users.Get(ctx, voterID)
	if err != nil {
		return nil, err
	}
	if voter.Status == domain.UserBanned {
		return nil, fmt.Errorf("%s: voter banned: %w", op, e.ErrForbidden)
	}

	for attempt := 0; ; attempt++ {
		inc, err := s.incidents.Get(ctx, incidentID)
		if err != nil {
			return nil, err
		}

		switch inc.Status {
		case domain.StatusPending:
			// open for voting
		case domain.StatusValidated:
			return nil, fmt.Errorf("%s: status %s: %w", op, inc.Status, e.ErrInvalidTransition)
		default:
			return nil, fmt.Errorf("%s: status %s: %w", op, inc.Status, e.ErrAlreadyTerminal)
		}

		upd := *inc
		// A revote replaces, never duplicates: drop the voter from both sets
		// before adding them back to the requested one.
		upd.Likes = removeUUID(inc.Likes, voterID)
		upd.Dislikes = removeUUID(inc.Dislikes, voterID)

		autoValidated := false
		if req.Vote == domain.VoteLike {
			upd.Likes = append(upd.Likes, voterID)
			upd.ReliabilityScore = domain.ClampScore(inc.ReliabilityScore + s.likeDelta)
			if len(upd.Likes) >= s.threshold {
				upd.Status = domain.StatusValidated
				upd.ValidatedBy = domain.SystemValidator
				autoValidated = true
			}
		} else {
			upd.Dislikes = append(upd.Dislikes, voterID)
			upd.ReliabilityScore = domain.ClampScore(inc.ReliabilityScore + s.dislikeDelta)
		}
		upd.UpdatedAt = time.Now().UTC()

		if err := s.incidents.UpdateCAS(ctx, &upd); err != nil {
			if errors.Is(err, e.ErrConflict) && attempt == 0 {
				continue
			}
			return nil, err
		}

		s.invalidateCache(ctx)

		if autoValidated {
			s.logger.Info("incident auto-validated",
				slog.String("incident_id", upd.ID.String()),
				slog.Int("likes", len(upd.Likes)),
			)
			s.notifyReporters(ctx, &upd)
			s.scoring.Settle(ctx, &upd, domain.StatusPending, domain.StatusValidated)
		}

		return &upd, nil
	}
}

func (s *ValidationService) SetStatus(ctx context.Context, incidentID uuid.UUID, req domain.SetStatusRequest) (*domain.Incident, error) {
	const op = "service.Validation.SetStatus"

	actorID, err := uuid.Parse(req.ActorID)
	if err != nil {
		return nil, fmt.Errorf("%s: actor_id: %w", op, e.ErrInvalidInput)
	}
	if !req.Status.Valid() || req.Status == domain.StatusPending {
		return nil, fmt.Errorf("%s: status %q: %w", op, req.Status, e.ErrInvalidInput)
	}

	actor, err := s.users.Get(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Status == domain.UserBanned || !actor.Role.Trusted() {
		return nil, fmt.Errorf("%s: actor %s: %w", op, actorID, e.ErrForbidden)
	}

	for attempt := 0; ; attempt++ {
		inc, err := s.incidents.Get(ctx, incidentID)
		if err != nil {
			return nil, err
		}

		from := inc.Status
		if from.Terminal() {
			return nil, fmt.Errorf("%s: status %s: %w", op, from, e.ErrAlreadyTerminal)
		}
		if !legalTransition(from, req.Status) {
			return nil, fmt.Errorf("%s: %s -> %s: %w", op, from, req.Status, e.ErrInvalidTransition)
		}

		upd := *inc
		upd.Status = req.Status
		if from == domain.StatusPending {
			upd.ValidatedBy = actorID.String()
		}
		upd.UpdatedAt = time.Now().UTC()

		if err := s.incidents.UpdateCAS(ctx, &upd); err != nil {
			if errors.Is(err, e.ErrConflict) && attempt == 0 {
				continue
			}
			return nil, err
		}

		s.logger.Info("incident status changed",
			slog.String("incident_id", upd.ID.String()),
			slog.String("from", string(from)),
			slog.String("to", string(upd.Status)),
			slog.String("actor_id", actorID.String()),
		)
		s.invalidateCache(ctx)
		s.notifyReporters(ctx, &upd)
		s.scoring.Settle(ctx, &upd, from, upd.Status)

		return &upd, nil
	}
}

// legalTransition enumerates every non-terminal move; keep the switch
// exhaustive over IncidentStatus when adding states.
func legalTransition(from, to domain.IncidentStatus) bool {
	switch from {
	case domain.StatusPending:
		return to == domain.StatusValidated || to == domain.StatusRejected
	case domain.StatusValidated:
		return to == domain.StatusResolved
	case domain.StatusRejected, domain.StatusResolved:
		return false
	}
	return false
}

func (s *ValidationService) notifyReporters(ctx context.Context, inc *domain.Incident) {
	kind := domain.NotifyInfo
	if inc.Status == domain.StatusRejected {
		kind = domain.NotifyAlert
	}
	msg := fmt.Sprintf("Your %s report is now %s.", inc.Type, inc.Status)
	for _, uid := range inc.Reporters {
		emitIntent(ctx, s.queue, s.logger, domain.NotificationIntent{
			Audience:          uid.String(),
			Kind:              kind,
			Title:             "Incident status update",
			Message:           msg,
			RelatedIncidentID: inc.ID,
		})
	}
}

func (s *ValidationService) invalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("incident cache invalidate failed", slog.Any("error", err))
	}
}

func removeUUID(ids []uuid.UUID, drop uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
