//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/boni03200-lang/gomasecure/internal/domain"
	"github.com/boni03200-lang/gomasecure/pkg/e"
)

var (
	testPool *pgxpool.Pool
	tc       testcontainers.Container
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMain(m *testing.M) {
	ctx := context.Background()

	user := "postgres"
	pass := "postgres"
	db := "postgres"

	req := testcontainers.ContainerRequest{
		Image:        "postgis/postgis:16-3.4-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     user,
			"POSTGRES_PASSWORD": pass,
			"POSTGRES_DB":       db,
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections"),
		).WithDeadline(90 * time.Second),
	}

	var err error
	tc, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Println("cannot start container:", err)
		os.Exit(1)
	}

	host, _ := tc.Host(ctx)
	mappedPort, _ := tc.MappedPort(ctx, "5432/tcp")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, mappedPort.Port(), db)

	testPool, err = pgxpool.New(ctx, dsn)
	if err != nil {
		fmt.Println("pgxpool.New:", err)
		_ = tc.Terminate(ctx)
		os.Exit(1)
	}

	if err := testPool.Ping(ctx); err != nil {
		fmt.Println("pool.Ping:", err)
		testPool.Close()
		_ = tc.Terminate(ctx)
		os.Exit(1)
	}

	if err := setupSchema(ctx, testPool); err != nil {
		fmt.Println("setupSchema:", err)
		testPool.Close()
		_ = tc.Terminate(ctx)
		os.Exit(1)
	}

	code := m.Run()

	testPool.Close()
	_ = tc.Terminate(ctx)
	os.Exit(code)
}

func setupSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE EXTENSION IF NOT EXISTS postgis;

		CREATE TABLE IF NOT EXISTS incidents (
			id uuid PRIMARY KEY,
			type text NOT NULL,
			description text NOT NULL DEFAULT '',
			geo_point geometry(Point, 4326) NOT NULL,
			status text NOT NULL,
			reporter_id uuid NOT NULL,
			reporters uuid[] NOT NULL DEFAULT '{}',
			report_count int NOT NULL DEFAULT 1,
			likes uuid[] NOT NULL DEFAULT '{}',
			dislikes uuid[] NOT NULL DEFAULT '{}',
			reliability_score int NOT NULL DEFAULT 0,
			validated_by text NOT NULL DEFAULT '',
			media_ref text NOT NULL DEFAULT '',
			created_at timestamptz NOT NULL,
			updated_at timestamptz NOT NULL,
			version bigint NOT NULL DEFAULT 1
		);

		CREATE TABLE IF NOT EXISTS users (
			uid uuid PRIMARY KEY,
			display_name text NOT NULL DEFAULT '',
			role text NOT NULL,
			status text NOT NULL,
			reputation_score int NOT NULL DEFAULT 50,
			joined_at timestamptz NOT NULL
		);
	`)
	return err
}

func truncateAll(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(), `TRUNCATE TABLE incidents, users`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func seedIncident(t *testing.T, repo *IncidentRepo, tp domain.IncidentType, status domain.IncidentStatus, lat, lng float64, createdAt time.Time) *domain.Incident {
	t.Helper()
	inc := &domain.Incident{
		Type:       tp,
		Status:     status,
		Lat:        lat,
		Lng:        lng,
		ReporterID: uuid.New(),
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	if err := repo.Create(context.Background(), inc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return inc
}

func TestIncidentRepo_Create_RoundTrip(t *testing.T) {
	truncateAll(t)

	repo := NewIncidentRepo(testPool, testLogger())
	reporter := uuid.New()

	inc := &domain.Incident{
		Type:             domain.IncidentFire,
		Description:      "smoke over the market",
		Lat:              -1.674656,
		Lng:              29.228569,
		Status:           domain.StatusPending,
		ReporterID:       reporter,
		ReliabilityScore: 50,
	}
	if err := repo.Create(context.Background(), inc); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if inc.ID == uuid.Nil {
		t.Fatalf("expected ID set")
	}
	if inc.CreatedAt.IsZero() || inc.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps set")
	}
	if inc.Version != 1 {
		t.Fatalf("expected version=1 got=%d", inc.Version)
	}

	got, err := repo.Get(context.Background(), inc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Lat != inc.Lat || got.Lng != inc.Lng {
		t.Fatalf("lat/lng mismatch got=(%v,%v) want=(%v,%v)", got.Lat, got.Lng, inc.Lat, inc.Lng)
	}
	if got.Type != domain.IncidentFire || got.Status != domain.StatusPending {
		t.Fatalf("unexpected row: %+v", got)
	}
	if len(got.Reporters) != 1 || got.Reporters[0] != reporter {
		t.Fatalf("reporters default not applied: %v", got.Reporters)
	}
	if got.ReportCount != 1 {
		t.Fatalf("report_count = %d, want 1", got.ReportCount)
	}
}

func TestIncidentRepo_Get_NotFound(t *testing.T) {
	truncateAll(t)

	repo := NewIncidentRepo(testPool, testLogger())

	_, err := repo.Get(context.Background(), uuid.New())
	if !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestIncidentRepo_UpdateCAS_VersionGuard(t *testing.T) {
	truncateAll(t)

	repo := NewIncidentRepo(testPool, testLogger())
	inc := seedIncident(t, repo, domain.IncidentTheft, domain.StatusPending, 10, 20, time.Now().UTC())

	first, err := repo.Get(context.Background(), inc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	second, err := repo.Get(context.Background(), inc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	first.ReliabilityScore = 60
	first.UpdatedAt = time.Now().UTC()
	if err := repo.UpdateCAS(context.Background(), first); err != nil {
		t.Fatalf("first UpdateCAS: %v", err)
	}
	if first.Version != 2 {
		t.Fatalf("expected version bumped to 2, got %d", first.Version)
	}

	// The second copy still carries the old version and must lose.
	second.ReliabilityScore = 35
	second.UpdatedAt = time.Now().UTC()
	err = repo.UpdateCAS(context.Background(), second)
	if !errors.Is(err, e.ErrConflict) {
		t.Fatalf("expected ErrConflict, got: %v", err)
	}

	got, err := repo.Get(context.Background(), inc.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ReliabilityScore != 60 {
		t.Fatalf("losing write leaked through: score=%d", got.ReliabilityScore)
	}
}

func TestIncidentRepo_UpdateCAS_NotFound(t *testing.T) {
	truncateAll(t)

	repo := NewIncidentRepo(testPool, testLogger())

	inc := &domain.Incident{
		ID:      uuid.New(),
		Status:  domain.StatusPending,
		Version: 1,
	}
	err := repo.UpdateCAS(context.Background(), inc)
	if !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestIncidentRepo_Candidates_RadiusTypeStatusAndOrder(t *testing.T) {
	truncateAll(t)

	repo := NewIncidentRepo(testPool, testLogger())
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// ~1.6km east, inside the 2000m fire radius, created first.
	older := seedIncident(t, repo, domain.IncidentFire, domain.StatusPending, 0, 0.015, base)
	// Right on top of the query point but created later.
	newer := seedIncident(t, repo, domain.IncidentFire, domain.StatusValidated, 0, 0.001, base.Add(time.Minute))
	// Same spot, wrong status.
	seedIncident(t, repo, domain.IncidentFire, domain.StatusRejected, 0, 0.001, base)
	// Same spot, wrong type.
	seedIncident(t, repo, domain.IncidentTheft, domain.StatusPending, 0, 0.001, base)
	// Same type, ~5.5km out.
	seedIncident(t, repo, domain.IncidentFire, domain.StatusPending, 0, 0.05, base)

	got, err := repo.Candidates(context.Background(), domain.IncidentFire, 0, 0, 2000)
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].ID != older.ID || got[1].ID != newer.ID {
		t.Fatalf("expected created_at ASC order: got [%s, %s] want [%s, %s]",
			got[0].ID, got[1].ID, older.ID, newer.ID)
	}
}

func TestIncidentRepo_Candidates_InvalidInput(t *testing.T) {
	truncateAll(t)

	repo := NewIncidentRepo(testPool, testLogger())

	_, err := repo.Candidates(context.Background(), domain.IncidentFire, 91, 0, 2000)
	if !errors.Is(err, e.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got: %v", err)
	}
	_, err = repo.Candidates(context.Background(), domain.IncidentFire, 0, 0, 0)
	if !errors.Is(err, e.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero radius, got: %v", err)
	}
}

func TestIncidentRepo_ListActive(t *testing.T) {
	truncateAll(t)

	repo := NewIncidentRepo(testPool, testLogger())
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	seedIncident(t, repo, domain.IncidentFire, domain.StatusPending, 0, 0, base)
	seedIncident(t, repo, domain.IncidentTheft, domain.StatusValidated, 1, 1, base.Add(time.Minute))
	seedIncident(t, repo, domain.IncidentFire, domain.StatusResolved, 2, 2, base)
	seedIncident(t, repo, domain.IncidentSOS, domain.StatusRejected, 3, 3, base)

	all, err := repo.ListActive(context.Background(), "")
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 active incidents, got %d", len(all))
	}
	if all[0].UpdatedAt.Before(all[1].UpdatedAt) {
		t.Fatalf("expected updated_at DESC order")
	}

	fires, err := repo.ListActive(context.Background(), domain.IncidentFire)
	if err != nil {
		t.Fatalf("ListActive(FIRE): %v", err)
	}
	if len(fires) != 1 || fires[0].Type != domain.IncidentFire {
		t.Fatalf("type filter broken: %+v", fires)
	}
}

func TestUserRepo_CreateGet(t *testing.T) {
	truncateAll(t)

	repo := NewUserRepo(testPool, testLogger())

	u := &domain.User{
		DisplayName:     "amani",
		Role:            domain.RoleCitizen,
		ReputationScore: 50,
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.UID == uuid.Nil || u.JoinedAt.IsZero() {
		t.Fatalf("defaults not applied: %+v", u)
	}
	if u.Status != domain.UserActive {
		t.Fatalf("expected ACTIVE status default, got %s", u.Status)
	}

	got, err := repo.Get(context.Background(), u.UID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.DisplayName != "amani" || got.ReputationScore != 50 {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestUserRepo_Create_SeedsScoreByRole(t *testing.T) {
	truncateAll(t)

	repo := NewUserRepo(testPool, testLogger())

	tests := []struct {
		role domain.UserRole
		want int
	}{
		{domain.RoleCitizen, 50},
		{domain.RoleSentinel, 80},
		{domain.RoleAdministrator, 100},
	}

	for _, tt := range tests {
		u := &domain.User{Role: tt.role}
		if err := repo.Create(context.Background(), u); err != nil {
			t.Fatalf("Create(%s): %v", tt.role, err)
		}
		got, err := repo.Get(context.Background(), u.UID)
		if err != nil {
			t.Fatalf("Get(%s): %v", tt.role, err)
		}
		if got.ReputationScore != tt.want {
			t.Fatalf("%s seed = %d, want %d", tt.role, got.ReputationScore, tt.want)
		}
	}
}

func TestUserRepo_AdjustReputation(t *testing.T) {
	truncateAll(t)

	repo := NewUserRepo(testPool, testLogger())

	u := &domain.User{Role: domain.RoleCitizen, Status: domain.UserActive, ReputationScore: 50}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	old, cur, err := repo.AdjustReputation(context.Background(), u.UID, 10)
	if err != nil {
		t.Fatalf("AdjustReputation: %v", err)
	}
	if old != 50 || cur != 60 {
		t.Fatalf("got (%d,%d), want (50,60)", old, cur)
	}

	// Clamp at the ceiling.
	old, cur, err = repo.AdjustReputation(context.Background(), u.UID, 1000)
	if err != nil {
		t.Fatalf("AdjustReputation: %v", err)
	}
	if old != 60 || cur != 100 {
		t.Fatalf("got (%d,%d), want (60,100)", old, cur)
	}

	// Already at the ceiling: no write, old == cur.
	old, cur, err = repo.AdjustReputation(context.Background(), u.UID, 10)
	if err != nil {
		t.Fatalf("AdjustReputation: %v", err)
	}
	if old != 100 || cur != 100 {
		t.Fatalf("got (%d,%d), want (100,100)", old, cur)
	}

	// Clamp at the floor.
	old, cur, err = repo.AdjustReputation(context.Background(), u.UID, -1000)
	if err != nil {
		t.Fatalf("AdjustReputation: %v", err)
	}
	if old != 100 || cur != 0 {
		t.Fatalf("got (%d,%d), want (100,0)", old, cur)
	}
}

func TestUserRepo_AdjustReputation_NotFound(t *testing.T) {
	truncateAll(t)

	repo := NewUserRepo(testPool, testLogger())

	_, _, err := repo.AdjustReputation(context.Background(), uuid.New(), 5)
	if !errors.Is(err, e.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestStatsRepo_Counts(t *testing.T) {
	truncateAll(t)

	incidents := NewIncidentRepo(testPool, testLogger())
	stats := NewStats(testPool, testLogger())
	now := time.Now().UTC()

	seedIncident(t, incidents, domain.IncidentFire, domain.StatusPending, 0, 0, now)
	seedIncident(t, incidents, domain.IncidentFire, domain.StatusPending, 1, 1, now)
	seedIncident(t, incidents, domain.IncidentTheft, domain.StatusValidated, 2, 2, now)
	seedIncident(t, incidents, domain.IncidentSOS, domain.StatusRejected, 3, 3, now.Add(-2*time.Hour))

	counts, err := stats.StatusCounts(context.Background())
	if err != nil {
		t.Fatalf("StatusCounts: %v", err)
	}
	if counts[domain.StatusPending] != 2 || counts[domain.StatusValidated] != 1 || counts[domain.StatusRejected] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	recent, err := stats.CountRecentReports(context.Background(), 60)
	if err != nil {
		t.Fatalf("CountRecentReports: %v", err)
	}
	if recent != 3 {
		t.Fatalf("recent = %d, want 3 (the rejected one is two hours old)", recent)
	}
}
