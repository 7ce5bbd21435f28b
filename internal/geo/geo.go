// Package geo holds the pure merge-eligibility math. Nothing here touches
// storage, so everything is safe to call concurrently.
package geo

import (
	"math"

	"github.com/boni03200-lang/gomasecure/internal/domain"
)

// RadiusTable maps incident types to their merge radius in meters. Localized
// crime gets small radii; wide-area hazards like fires get kilometers.
type RadiusTable map[domain.IncidentType]float64

const defaultRadiusM = 200

func (t RadiusTable) For(tp domain.IncidentType) float64 {
	if r, ok := t[tp]; ok && r > 0 {
		return r
	}
	return defaultRadiusM
}

// DefaultRadii mirrors the tuned production values; config may override them.
func DefaultRadii() RadiusTable {
	return RadiusTable{
		domain.IncidentTheft:     150,
		domain.IncidentAssault:   200,
		domain.IncidentAccident:  500,
		domain.IncidentFire:      2000,
		domain.IncidentAbduction: 300,
		domain.IncidentSOS:       1000,
		domain.IncidentOther:     200,
	}
}

// DistanceMeters computes the great-circle distance via haversine.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusM = 6371e3

	dLat := deg2rad(lat2 - lat1)
	dLng := deg2rad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(deg2rad(lat1))*math.Cos(deg2rad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}

func deg2rad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// IsMergeCandidate reports whether a fresh report of the given type at
// (lat,lng) should fold into existing instead of creating a new incident.
// Only PENDING and VALIDATED incidents are open for merging.
func IsMergeCandidate(existing *domain.Incident, tp domain.IncidentType, lat, lng float64, radii RadiusTable) bool {
	if existing == nil || existing.Type != tp {
		return false
	}
	if existing.Status != domain.StatusPending && existing.Status != domain.StatusValidated {
		return false
	}
	return DistanceMeters(existing.Lat, existing.Lng, lat, lng) <= radii.For(tp)
}
