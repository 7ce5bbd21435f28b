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

type IncidentRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewIncidentRepo(pool *pgxpool.Pool, logger *slog.Logger) *IncidentRepo {
	return &IncidentRepo{pool: pool, logger: logger}
}

const incidentColumns = `
		id,
		type,
		description,
		ST_Y(geo_point::geometry) AS lat,
		ST_X(geo_point::geometry) AS lng,
		status,
		reporter_id,
		reporters,
		report_count,
		likes,
		dislikes,
		reliability_score,
		validated_by,
		media_ref,
		created_at,
		updated_at,
		version`

func (p *IncidentRepo) Create(ctx context.Context, incident *domain.Incident) error {
	const op = "postgres.Incident.Create"

	const query = `
		INSERT INTO incidents (id, type, description, geo_point, status, reporter_id,
			reporters, report_count, likes, dislikes, reliability_score, validated_by,
			media_ref, created_at, updated_at, version)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326), $6, $7,
			$8, $9, $10, $11, $12, $13, $14, $15, $16, 1)
	`

	if incident.ID == uuid.Nil {
		incident.ID = uuid.New()
	}
	now := time.Now().UTC()
	if incident.CreatedAt.IsZero() {
		incident.CreatedAt = now
	}
	if incident.UpdatedAt.IsZero() {
		incident.UpdatedAt = incident.CreatedAt
	}
	if incident.Reporters == nil {
		incident.Reporters = []uuid.UUID{incident.ReporterID}
	}
	if incident.ReportCount == 0 {
		incident.ReportCount = len(incident.Reporters)
	}
	if incident.Likes == nil {
		incident.Likes = []uuid.UUID{}
	}
	if incident.Dislikes == nil {
		incident.Dislikes = []uuid.UUID{}
	}
	incident.Version = 1

	_, err := p.pool.Exec(ctx, query,
		incident.ID,
		incident.Type,
		incident.Description,
		incident.Lng,
		incident.Lat,
		incident.Status,
		incident.ReporterID,
		incident.Reporters,
		incident.ReportCount,
		incident.Likes,
		incident.Dislikes,
		incident.ReliabilityScore,
		incident.ValidatedBy,
		incident.MediaRef,
		incident.CreatedAt,
		incident.UpdatedAt,
	)
	if err != nil {
		p.logger.Error("db exec failed",
			slog.String("op", op),
			slog.Any("error", err),
		)
		return e.WrapError(ctx, op, err)
	}

	return nil
}

func (p *IncidentRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error) {
	const op = "postgres.Incident.Get"

	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`

	inc, err := scanIncident(p.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		p.logger.Error("db queryrow scan failed", slog.String("op", op), slog.Any("error", err), slog.String("id", id.String()))
		return nil, e.WrapError(ctx, op, err)
	}

	return inc, nil
}

// UpdateCAS is the only write path for existing incidents. The version guard
// makes every read-modify-write cycle lose cleanly instead of silently
// clobbering a concurrent merge or vote.
func (p *IncidentRepo) UpdateCAS(ctx context.Context, incident *domain.Incident) error {
	const op = "postgres.Incident.UpdateCAS"

	const query = `
		UPDATE incidents
		SET status            = $2,
			reporters         = $3,
			report_count      = $4,
			likes             = $5,
			dislikes          = $6,
			reliability_score = $7,
			validated_by      = $8,
			updated_at        = $9,
			version           = version + 1
		WHERE id = $1 AND version = $10
	`

	cmd, err := p.pool.Exec(ctx, query,
		incident.ID,
		incident.Status,
		incident.Reporters,
		incident.ReportCount,
		incident.Likes,
		incident.Dislikes,
		incident.ReliabilityScore,
		incident.ValidatedBy,
		incident.UpdatedAt,
		incident.Version,
	)
	if err != nil {
		p.logger.Error("db exec failed", slog.String("op", op), slog.Any("error", err), slog.String("id", incident.ID.String()))
		return e.WrapError(ctx, op, err)
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := p.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM incidents WHERE id = $1)`, incident.ID).Scan(&exists); err != nil {
			return e.WrapError(ctx, op, err)
		}
		if !exists {
			return fmt.Errorf("%s: %w", op, e.ErrNotFound)
		}
		return fmt.Errorf("%s: version %d: %w", op, incident.Version, e.ErrConflict)
	}

	incident.Version++
	return nil
}

func (p *IncidentRepo) Candidates(ctx context.Context, tp domain.IncidentType, lat, lng, radiusM float64) ([]*domain.Incident, error) {
	const op = "postgres.Incident.Candidates"

	if lat < -90 || lat > 90 || lng < -180 || lng > 180 || radiusM <= 0 {
		return nil, fmt.Errorf("%s: %w", op, e.ErrInvalidInput)
	}

	// geo_point is geometry(4326); cast to geography so ST_DWithin works in
	// meters. Ordering by created_at, id is a contract the correlation engine
	// relies on (first match wins).
	query := `
SELECT ` + incidentColumns + `
FROM incidents
WHERE type = $1
  AND status IN ('PENDING', 'VALIDATED')
  AND ST_DWithin(
    geo_point::geography,
    ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography,
    $4
  )
ORDER BY created_at ASC, id ASC
`

	rows, err := p.pool.Query(ctx, query, tp, lng, lat, radiusM)
	if err != nil {
		p.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	return collectIncidents(ctx, op, rows, p.logger)
}

func (p *IncidentRepo) ListActive(ctx context.Context, tp domain.IncidentType) ([]*domain.Incident, error) {
	const op = "postgres.Incident.ListActive"

	query := `
SELECT ` + incidentColumns + `
FROM incidents
WHERE status IN ('PENDING', 'VALIDATED')
`
	args := []any{}
	if tp != "" {
		query += ` AND type = $1`
		args = append(args, tp)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		p.logger.Error("db query failed", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	defer rows.Close()

	return collectIncidents(ctx, op, rows, p.logger)
}

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var inc domain.Incident
	err := row.Scan(
		&inc.ID,
		&inc.Type,
		&inc.Description,
		&inc.Lat,
		&inc.Lng,
		&inc.Status,
		&inc.ReporterID,
		&inc.Reporters,
		&inc.ReportCount,
		&inc.Likes,
		&inc.Dislikes,
		&inc.ReliabilityScore,
		&inc.ValidatedBy,
		&inc.MediaRef,
		&inc.CreatedAt,
		&inc.UpdatedAt,
		&inc.Version,
	)
	if err != nil {
		return nil, err
	}
	return &inc, nil
}

func collectIncidents(ctx context.Context, op string, rows pgx.Rows, logger *slog.Logger) ([]*domain.Incident, error) {
	var incidents []*domain.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			logger.Error("row scan failed", slog.String("op", op), slog.Any("error", err))
			return nil, e.WrapError(ctx, op, err)
		}
		incidents = append(incidents, inc)
	}
	if err := rows.Err(); err != nil {
		logger.Error("rows err", slog.String("op", op), slog.Any("error", err))
		return nil, e.WrapError(ctx, op, err)
	}
	return incidents, nil
}
