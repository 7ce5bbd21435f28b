package system

import (
	"net/http"

	"log/slog"
)

type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

// SystemHealth is a liveness probe; it says nothing about postgres or redis.
func (h *Handler) SystemHealth(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("health probe", slog.String("remote", r.RemoteAddr))

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
