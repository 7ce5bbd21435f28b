package public

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/boni03200-lang/gomasecure/internal/domain"
	"github.com/boni03200-lang/gomasecure/pkg/validator"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type Reports interface {
	SubmitReport(ctx context.Context, req domain.SubmitReportRequest) (*domain.Incident, error)
}

type Votes interface {
	CastVote(ctx context.Context, incidentID uuid.UUID, req domain.CastVoteRequest) (*domain.Incident, error)
}

type Queries interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Incident, error)
	ListActive(ctx context.Context, req domain.ListIncidentsRequest) ([]domain.Incident, error)
	Reputation(ctx context.Context, uid uuid.UUID) (int, error)
}

type Accounts interface {
	Register(ctx context.Context, req domain.RegisterUserRequest) (*domain.User, error)
}

type Handler struct {
	logger   *slog.Logger
	Reports  Reports
	Votes    Votes
	Queries  Queries
	Accounts Accounts
}

func NewHandler(logger *slog.Logger, reports Reports, votes Votes, queries Queries, accounts Accounts) *Handler {
	return &Handler{
		logger:   logger,
		Reports:  reports,
		Votes:    votes,
		Queries:  queries,
		Accounts: accounts,
	}
}

func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterUserRequest

	if !h.decodeJSON(w, r.Body, &req) {
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	u, err := h.Accounts.Register(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, u)
}

func (h *Handler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitReportRequest

	if !h.decodeJSON(w, r.Body, &req) {
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	inc, err := h.Reports.SubmitReport(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, inc)
}

func (h *Handler) CastVote(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req domain.CastVoteRequest
	if !h.decodeJSON(w, r.Body, &req) {
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	inc, err := h.Votes.CastVote(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, inc)
}

func (h *Handler) GetIncident(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	inc, err := h.Queries.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, inc)
}

func (h *Handler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	req := domain.ListIncidentsRequest{
		Type: r.URL.Query().Get("type"),
	}

	incidents, err := h.Queries.ListActive(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"incidents": incidents})
}

func (h *Handler) GetReputation(w http.ResponseWriter, r *http.Request) {
	uid, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}

	score, err := h.Queries.Reputation(r.Context(), uid)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, domain.ReputationResponse{
		UserID:          uid.String(),
		ReputationScore: score,
	})
}

func (h *Handler) decodeJSON(w http.ResponseWriter, body io.Reader, target any) bool {
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(target); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return false
	}
	// reject trailing garbage after the first JSON object
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return false
	}
	return true
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid incident id"})
		return uuid.Nil, false
	}
	return id, true
}
