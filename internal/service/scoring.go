package service

import (
	"context"

	"log/slog"

	"github.com/google/uuid"

	"github.com/boni03200-lang/gomasecure/internal/domain"
)

// Settlement deltas. The truth value of an incident settles accounts for the
// reporter and every distinct voter.
const (
	reporterValidatedDelta = 5
	likerValidatedDelta    = 2
	dislikerValidatedDelta = -2

	reporterRejectedDelta = -15
	likerRejectedDelta    = -5
	dislikerRejectedDelta = 5

	reporterResolvedDelta = 10

	trustedReportDelta = 5
)

// ScoringCoordinator turns status transitions into reputation deltas. All
// writes go through the ledger; failures are logged and never surfaced to the
// transition that triggered them.
type ScoringCoordinator struct {
	ledger LedgerService
	logger *slog.Logger
}

func NewScoringCoordinator(ledger LedgerService, logger *slog.Logger) *ScoringCoordinator {
	return &ScoringCoordinator{ledger: ledger, logger: logger}
}

// Settle is invoked exactly once per transition that resolves an incident's
// truth value: the first move out of PENDING, and VALIDATED -> RESOLVED.
// CAS serialization upstream guarantees the exactly-once part.
func (c *ScoringCoordinator) Settle(ctx context.Context, inc *domain.Incident, from, to domain.IncidentStatus) {
	switch {
	case from == domain.StatusPending && to == domain.StatusValidated:
		c.adjust(ctx, inc.ReporterID, reporterValidatedDelta, "report validated")
		c.settleVoters(ctx, inc, likerValidatedDelta, dislikerValidatedDelta,
			"confirmed a validated incident", "disputed a validated incident")

	case from == domain.StatusPending && to == domain.StatusRejected:
		c.adjust(ctx, inc.ReporterID, reporterRejectedDelta, "report rejected")
		c.settleVoters(ctx, inc, likerRejectedDelta, dislikerRejectedDelta,
			"endorsed a rejected incident", "flagged a rejected incident")

	case from == domain.StatusValidated && to == domain.StatusResolved:
		c.adjust(ctx, inc.ReporterID, reporterResolvedDelta, "incident resolved")
	}
}

// TrustedReportBonus rewards a Sentinel/Administrator whose report skipped the
// vote pipeline entirely.
func (c *ScoringCoordinator) TrustedReportBonus(ctx context.Context, reporterID uuid.UUID) {
	c.adjust(ctx, reporterID, trustedReportDelta, "trusted report auto-validated")
}

func (c *ScoringCoordinator) settleVoters(ctx context.Context, inc *domain.Incident, likerDelta, dislikerDelta int, likerReason, dislikerReason string) {
	// Each voter settles once no matter how often they toggled, and a reporter
	// voting on their own incident settles only as reporter.
	for _, uid := range distinct(inc.Likes, inc.ReporterID) {
		c.adjust(ctx, uid, likerDelta, likerReason)
	}
	for _, uid := range distinct(inc.Dislikes, inc.ReporterID) {
		c.adjust(ctx, uid, dislikerDelta, dislikerReason)
	}
}

func (c *ScoringCoordinator) adjust(ctx context.Context, uid uuid.UUID, delta int, reason string) {
	if _, err := c.ledger.Adjust(ctx, uid, delta, reason); err != nil {
		c.logger.Error("reputation settlement failed",
			slog.String("uid", uid.String()),
			slog.Int("delta", delta),
			slog.String("reason", reason),
			slog.Any("error", err),
		)
	}
}

func distinct(ids []uuid.UUID, exclude uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == exclude {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
