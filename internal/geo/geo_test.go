package geo_test

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/boni03200-lang/gomasecure/internal/domain"
	"github.com/boni03200-lang/gomasecure/internal/geo"
)

func TestDistanceMeters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
		tolerance              float64
	}{
		{
			name: "same point",
			lat1: -1.67, lng1: 29.22, lat2: -1.67, lng2: 29.22,
			want: 0, tolerance: 0.01,
		},
		{
			name: "one degree of longitude at the equator",
			lat1: 0, lng1: 0, lat2: 0, lng2: 1,
			want: 111195, tolerance: 200,
		},
		{
			name: "fire scenario distance",
			lat1: 0, lng1: 0, lat2: 0, lng2: 0.015,
			want: 1668, tolerance: 10,
		},
		{
			name: "symmetric",
			lat1: 48.85, lng1: 2.35, lat2: 51.51, lng2: -0.13,
			want: 334576, tolerance: 2000,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := geo.DistanceMeters(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Fatalf("DistanceMeters = %.1f, want %.1f (±%.1f)", got, tt.want, tt.tolerance)
			}
			back := geo.DistanceMeters(tt.lat2, tt.lng2, tt.lat1, tt.lng1)
			if math.Abs(got-back) > 0.001 {
				t.Fatalf("distance not symmetric: %.4f vs %.4f", got, back)
			}
		})
	}
}

func TestRadiusTable_For(t *testing.T) {
	t.Parallel()

	radii := geo.DefaultRadii()

	if got := radii.For(domain.IncidentFire); got != 2000 {
		t.Fatalf("FIRE radius = %.0f, want 2000", got)
	}
	if got := radii.For(domain.IncidentTheft); got != 150 {
		t.Fatalf("THEFT radius = %.0f, want 150", got)
	}
	if got := radii.For(domain.IncidentType("UNKNOWN")); got != 200 {
		t.Fatalf("unknown type radius = %.0f, want default 200", got)
	}

	var empty geo.RadiusTable
	if got := empty.For(domain.IncidentSOS); got != 200 {
		t.Fatalf("nil table radius = %.0f, want default 200", got)
	}
}

func TestIsMergeCandidate(t *testing.T) {
	t.Parallel()

	radii := geo.DefaultRadii()

	base := func(tp domain.IncidentType, status domain.IncidentStatus) *domain.Incident {
		return &domain.Incident{
			ID:     uuid.New(),
			Type:   tp,
			Status: status,
			Lat:    0,
			Lng:    0,
		}
	}

	tests := []struct {
		name     string
		existing *domain.Incident
		tp       domain.IncidentType
		lat, lng float64
		want     bool
	}{
		{
			name:     "pending fire within radius",
			existing: base(domain.IncidentFire, domain.StatusPending),
			tp:       domain.IncidentFire, lat: 0, lng: 0.015,
			want: true,
		},
		{
			name:     "validated incident still open for merging",
			existing: base(domain.IncidentFire, domain.StatusValidated),
			tp:       domain.IncidentFire, lat: 0, lng: 0.015,
			want: true,
		},
		{
			name:     "theft at fire distance is out of radius",
			existing: base(domain.IncidentTheft, domain.StatusPending),
			tp:       domain.IncidentTheft, lat: 0, lng: 0.015,
			want: false,
		},
		{
			name:     "type mismatch",
			existing: base(domain.IncidentFire, domain.StatusPending),
			tp:       domain.IncidentTheft, lat: 0, lng: 0,
			want: false,
		},
		{
			name:     "rejected never merges",
			existing: base(domain.IncidentFire, domain.StatusRejected),
			tp:       domain.IncidentFire, lat: 0, lng: 0,
			want: false,
		},
		{
			name:     "resolved never merges",
			existing: base(domain.IncidentFire, domain.StatusResolved),
			tp:       domain.IncidentFire, lat: 0, lng: 0,
			want: false,
		},
		{
			name: "nil incident",
			tp:   domain.IncidentFire, lat: 0, lng: 0,
			want: false,
		},
		{
			name:     "just outside radius",
			existing: base(domain.IncidentTheft, domain.StatusPending),
			tp:       domain.IncidentTheft, lat: 0, lng: 0.0015,
			want: false,
		},
		{
			name:     "just inside radius",
			existing: base(domain.IncidentTheft, domain.StatusPending),
			tp:       domain.IncidentTheft, lat: 0, lng: 0.0013,
			want: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := geo.IsMergeCandidate(tt.existing, tt.tp, tt.lat, tt.lng, radii)
			if got != tt.want {
				t.Fatalf("IsMergeCandidate = %v, want %v", got, tt.want)
			}
		})
	}
}
