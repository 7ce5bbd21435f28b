package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/boni03200-lang/gomasecure/internal/domain"
	"github.com/boni03200-lang/gomasecure/pkg/e"
)

type UserRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewUserRepo(pool *pgxpool.Pool, logger *slog.Logger) *UserRepo {
	return &UserRepo{pool: pool, logger: logger}
}

func (p *UserRepo) Create(ctx context.Context, user *domain.User) error {
	const op = "postgres.User.Create"

	const query = `
		INSERT INTO users (uid, display_name, role, status, reputation_score, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if user.UID == uuid.Nil {
		user.UID = uuid.New()
	}
	if user.JoinedAt.IsZero() {
		user.JoinedAt = time.Now().UTC()
	}
	if user.Status == "" {
		user.Status = domain.UserActive
	}
	// A zero score means the caller did not seed it; fresh accounts start at
	// their role's seed.
	if user.ReputationScore == 0 {
		user.ReputationScore = user.Role.SeedScore()
	}

	_, err := p.pool.Exec(ctx, query,
		user.UID,
		user.DisplayName,
		user.Role,
		user.Status,
		user.ReputationScore,
		user.JoinedAt,
	)
	if err != nil {
		p.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err))
		return e.WrapError(ctx, op, err)
	}

	return nil
}

func (p *UserRepo) Get(ctx context.Context, uid uuid.UUID) (*domain.User, error) {
	const op = "postgres.User.Get"

	const query = `
		SELECT uid, display_name, role, status, reputation_score, joined_at
		FROM users
		WHERE uid = $1
	`

	var u domain.User
	err := p.pool.QueryRow(ctx, query, uid).Scan(
		&u.UID,
		&u.DisplayName,
		&u.Role,
		&u.Status,
		&u.ReputationScore,
		&u.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err), slog.String("uid", uid.String()))
		return nil, e.WrapError(ctx, op, err)
	}

	return &u, nil
}

// AdjustReputation clamps to [0,100] inside a single statement so concurrent
// adjustments never read a stale score. The UPDATE is skipped entirely when
// the clamped value equals the current one.
func (p *UserRepo) AdjustReputation(ctx context.Context, uid uuid.UUID, delta int) (int, int, error) {
	const op = "postgres.User.AdjustReputation"

	const query = `
WITH cur AS (
	SELECT reputation_score FROM users WHERE uid = $1
), upd AS (
	UPDATE users u
	SET reputation_score = LEAST(100, GREATEST(0, u.reputation_score + $2))
	WHERE u.uid = $1
	  AND u.reputation_score <> LEAST(100, GREATEST(0, u.reputation_score + $2))
	RETURNING u.reputation_score
)
SELECT cur.reputation_score AS old_score,
	   COALESCE((SELECT reputation_score FROM upd), cur.reputation_score) AS new_score
FROM cur
`

	var old, cur int
	err := p.pool.QueryRow(ctx, query, uid, delta).Scan(&old, &cur)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err), slog.String("uid", uid.String()))
		return 0, 0, e.WrapError(ctx, op, err)
	}

	return old, cur, nil
}
