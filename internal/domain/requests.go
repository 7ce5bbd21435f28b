package domain

type VoteType string

const (
	VoteLike    VoteType = "like"
	VoteDislike VoteType = "dislike"
)

func (v VoteType) Valid() bool {
	return v == VoteLike || v == VoteDislike
}

type SubmitReportRequest struct {
	ReporterID  string       `json:"reporter_id" validate:"required,uuid"`
	Type        IncidentType `json:"type" validate:"required,incident_type"`
	Description string       `json:"description" validate:"max=2000"`
	Lat         float64      `json:"lat" validate:"lat"`
	Lng         float64      `json:"lng" validate:"lng"`
	MediaRef    string       `json:"media_ref,omitempty" validate:"omitempty,max=512"`
}

type RegisterUserRequest struct {
	DisplayName string   `json:"display_name,omitempty" validate:"max=120"`
	Role        UserRole `json:"role" validate:"required,oneof=CITIZEN SENTINEL ADMINISTRATOR"`
}

type CastVoteRequest struct {
	VoterID string   `json:"voter_id" validate:"required,uuid"`
	Vote    VoteType `json:"vote" validate:"required,oneof=like dislike"`
}

type SetStatusRequest struct {
	ActorID string         `json:"actor_id" validate:"required,uuid"`
	Status  IncidentStatus `json:"status" validate:"required,oneof=VALIDATED REJECTED RESOLVED"`
}

type ListIncidentsRequest struct {
	Type string `query:"type" validate:"omitempty,incident_type"`
}

type ReputationResponse struct {
	UserID          string `json:"user_id"`
	ReputationScore int    `json:"reputation_score"`
}
