package service

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/boni03200-lang/gomasecure/internal/domain"
)

// ReputationLedger is the single writer of user reputation scores. Nothing
// else in the engine touches reputation_score directly.
type ReputationLedger struct {
	users              UserRepository
	queue              NotifyQueue
	logger             *slog.Logger
	promotionThreshold int
}

func NewReputationLedger(users UserRepository, queue NotifyQueue, logger *slog.Logger, promotionThreshold int) *ReputationLedger {
	if promotionThreshold <= 0 {
		promotionThreshold = 80
	}
	return &ReputationLedger{
		users:              users,
		queue:              queue,
		logger:             logger,
		promotionThreshold: promotionThreshold,
	}
}

// Adjust applies a clamped delta and returns the new score. A write that the
// clamp turns into a no-op produces no notification.
func (l *ReputationLedger) Adjust(ctx context.Context, uid uuid.UUID, delta int, reason string) (int, error) {
	if delta == 0 {
		u, err := l.users.Get(ctx, uid)
		if err != nil {
			return 0, err
		}
		return u.ReputationScore, nil
	}

	old, cur, err := l.users.AdjustReputation(ctx, uid, delta)
	if err != nil {
		return 0, err
	}
	if cur == old {
		l.logger.Debug("reputation adjust no-op",
			slog.String("uid", uid.String()),
			slog.Int("delta", delta),
			slog.Int("score", cur),
		)
		return cur, nil
	}

	l.logger.Info("reputation adjusted",
		slog.String("uid", uid.String()),
		slog.Int("delta", delta),
		slog.Int("old", old),
		slog.Int("new", cur),
		slog.String("reason", reason),
	)

	kind := domain.NotifyInfo
	if delta < 0 {
		kind = domain.NotifyAlert
	}
	emitIntent(ctx, l.queue, l.logger, domain.NotificationIntent{
		Audience: uid.String(),
		Kind:     kind,
		Title:    "Reputation update",
		Message:  fmt.Sprintf("Your reputation score changed by %+d (%s). New score: %d.", cur-old, reason, cur),
	})

	if old < l.promotionThreshold && cur >= l.promotionThreshold {
		l.maybeInvitePromotion(ctx, uid)
	}

	return cur, nil
}

// maybeInvitePromotion sends a Sentinel invite the first time a citizen
// crosses the promotion threshold.
func (l *ReputationLedger) maybeInvitePromotion(ctx context.Context, uid uuid.UUID) {
	u, err := l.users.Get(ctx, uid)
	if err != nil {
		l.logger.Error("promotion check failed", slog.String("uid", uid.String()), slog.Any("error", err))
		return
	}
	if u.Role != domain.RoleCitizen {
		return
	}
	if err := l.SendPromotionInvite(ctx, uid); err != nil {
		l.logger.Error("promotion invite failed", slog.String("uid", uid.String()), slog.Any("error", err))
	}
}

func (l *ReputationLedger) SendPromotionInvite(ctx context.Context, uid uuid.UUID) error {
	return l.queue.Enqueue(ctx, domain.NotificationIntent{
		Audience:  uid.String(),
		Kind:      domain.NotifyPromotion,
		Title:     "Sentinel promotion",
		Message:   "Your reporting record qualifies you for the Sentinel role.",
		CreatedAt: time.Now().UTC(),
	})
}
