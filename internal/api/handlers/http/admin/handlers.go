package admin

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/boni03200-lang/gomasecure/internal/domain"
	"github.com/boni03200-lang/gomasecure/pkg/validator"
)

//go:generate mockgen -source=handlers.go -destination=mocks/mock.go
type StatusSetter interface {
	SetStatus(ctx context.Context, incidentID uuid.UUID, req domain.SetStatusRequest) (*domain.Incident, error)
}

type StatsGetter interface {
	GetStats(ctx context.Context, req domain.StatsRequest) (*domain.EngineStats, error)
}

type Promoter interface {
	SendPromotionInvite(ctx context.Context, uid uuid.UUID) error
}

type Handler struct {
	logger   *slog.Logger
	Statuses StatusSetter
	Stats    StatsGetter
	Promoter Promoter
}

func NewHandler(logger *slog.Logger, statuses StatusSetter, stats StatsGetter, promoter Promoter) *Handler {
	return &Handler{
		logger:   logger,
		Statuses: statuses,
		Stats:    stats,
		Promoter: promoter,
	}
}

func (h *Handler) AdminSetStatus(w http.ResponseWriter, r *http.Request) {
	l := h.log(r)
	l.Debug("AdminSetStatus", slog.String("remote", r.RemoteAddr))

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid incident id"})
		return
	}

	var req domain.SetStatusRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if err := validator.ValidateStruct(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	inc, err := h.Statuses.SetStatus(r.Context(), id, req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, inc)
}

func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	req := domain.StatsRequest{
		Minutes: parseInt(r.URL.Query().Get("minutes"), 60),
	}

	stats, err := h.Stats.GetStats(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) AdminPromoteUser(w http.ResponseWriter, r *http.Request) {
	uid, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user id"})
		return
	}

	if err := h.Promoter.SendPromotionInvite(r.Context(), uid); err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "invite sent"})
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
