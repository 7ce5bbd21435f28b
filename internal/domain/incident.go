package domain

import (
	"time"

	"github.com/google/uuid"
)

type IncidentType string

const (
	IncidentTheft     IncidentType = "THEFT"
	IncidentAssault   IncidentType = "ASSAULT"
	IncidentFire      IncidentType = "FIRE"
	IncidentAccident  IncidentType = "ACCIDENT"
	IncidentAbduction IncidentType = "ABDUCTION"
	IncidentSOS       IncidentType = "SOS"
	IncidentOther     IncidentType = "OTHER"
)

func (t IncidentType) Valid() bool {
	switch t {
	case IncidentTheft, IncidentAssault, IncidentFire, IncidentAccident,
		IncidentAbduction, IncidentSOS, IncidentOther:
		return true
	}
	return false
}

type IncidentStatus string

const (
	StatusPending   IncidentStatus = "PENDING"
	StatusValidated IncidentStatus = "VALIDATED"
	StatusRejected  IncidentStatus = "REJECTED"
	StatusResolved  IncidentStatus = "RESOLVED"
)

func (s IncidentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusValidated, StatusRejected, StatusResolved:
		return true
	}
	return false
}

// Terminal statuses accept no further votes or authority actions.
func (s IncidentStatus) Terminal() bool {
	return s == StatusRejected || s == StatusResolved
}

// SystemValidator is the reserved identity recorded in validated_by when the
// auto-validation consensus rule fires. It never collides with a user uid.
const SystemValidator = "system"

type Incident struct {
	ID               uuid.UUID      `json:"id"`
	Type             IncidentType   `json:"type"`
	Description      string         `json:"description,omitempty"`
	Lat              float64        `json:"lat"` // -90..90
	Lng              float64        `json:"lng"` // -180..180
	Status           IncidentStatus `json:"status"`
	ReporterID       uuid.UUID      `json:"reporter_id"`
	Reporters        []uuid.UUID    `json:"reporters"`
	ReportCount      int            `json:"report_count"`
	Likes            []uuid.UUID    `json:"likes"`
	Dislikes         []uuid.UUID    `json:"dislikes"`
	ReliabilityScore int            `json:"reliability_score"` // 0..100
	ValidatedBy      string         `json:"validated_by,omitempty"`
	MediaRef         string         `json:"media_ref,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`

	// Version guards read-modify-write cycles at the storage layer.
	Version int64 `json:"-"`
}

func (i *Incident) HasReporter(uid uuid.UUID) bool {
	for _, r := range i.Reporters {
		if r == uid {
			return true
		}
	}
	return false
}

// ClampScore bounds per-incident and per-user scores to [0,100].
func ClampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
