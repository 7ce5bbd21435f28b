package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/boni03200-lang/gomasecure/internal/domain"
	"github.com/boni03200-lang/gomasecure/pkg/e"
)

type StatsRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewStats(pool *pgxpool.Pool, logger *slog.Logger) *StatsRepo {
	return &StatsRepo{pool: pool, logger: logger}
}

func (p *StatsRepo) StatusCounts(ctx context.Context) (map[domain.IncidentStatus]int64, error) {
	const op = "postgres.Stats.StatusCounts"

	const query = `SELECT status, COUNT(*) FROM incidents GROUP BY status`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		p.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	counts := make(map[domain.IncidentStatus]int64, 4)
	for rows.Next() {
		var status domain.IncidentStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			p.logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		p.logger.Error("rows err", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}

	return counts, nil
}

// CountRecentReports counts incidents touched by a report (creation or merge)
// within the window. Merges refresh updated_at, so activity shows up here.
func (p *StatsRepo) CountRecentReports(ctx context.Context, minutes int) (int64, error) {
	const op = "postgres.Stats.CountRecentReports"

	const query = `
		SELECT COUNT(*)
		FROM incidents
		WHERE updated_at >= NOW() - make_interval(mins => $1)
	`

	var n int64
	if err := p.pool.QueryRow(ctx, query, minutes).Scan(&n); err != nil {
		p.logger.Error("db queryrow failed", slog.String("op", op), slog.Any("error", err))
		return 0, e.WrapError(ctx, op, err)
	}

	return n, nil
}
