package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotifyAlert     NotificationKind = "ALERT"
	NotifyInfo      NotificationKind = "INFO"
	NotifyAction    NotificationKind = "ACTION"
	NotifyPromotion NotificationKind = "PROMOTION"
)

// AudienceAll addresses an intent to every active user.
const AudienceAll = "ALL"

// NotificationIntent is what the engine emits; delivery is someone else's job.
type NotificationIntent struct {
	Audience          string           `json:"audience"` // user uid or AudienceAll
	Kind              NotificationKind `json:"kind"`
	Title             string           `json:"title"`
	Message           string           `json:"message"`
	RelatedIncidentID uuid.UUID        `json:"related_incident_id,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
}
