package workers

import (
	"context"
	"time"

	"log/slog"

	"github.com/boni03200-lang/gomasecure/internal/domain"
)

type ActiveIncidentSource interface {
	ListActive(ctx context.Context, tp domain.IncidentType) ([]*domain.Incident, error)
}

type IncidentCache interface {
	SetActive(ctx context.Context, incidents []domain.Incident, ttl time.Duration) error
}

// CacheRefresher keeps the active-incident cache warm so list reads rarely
// miss. Mutations invalidate the key; the next tick or read repopulates it.
type CacheRefresher struct {
	incidents ActiveIncidentSource
	cache     IncidentCache
	interval  time.Duration
	ttl       time.Duration
	logger    *slog.Logger
}

func NewCacheRefresher(incidents ActiveIncidentSource, cache IncidentCache, interval, ttl time.Duration, logger *slog.Logger) *CacheRefresher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if ttl <= 0 {
		ttl = 2 * interval
	}
	return &CacheRefresher{
		incidents: incidents,
		cache:     cache,
		interval:  interval,
		ttl:       ttl,
		logger:    logger,
	}
}

func (w *CacheRefresher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("cacheRefresher STOPPED", slog.String("reason", ctx.Err().Error()))
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *CacheRefresher) refresh(ctx context.Context) {
	list, err := w.incidents.ListActive(ctx, "")
	if err != nil {
		w.logger.Error("cache refresh: list active failed", slog.Any("error", err))
		return
	}

	out := make([]domain.Incident, 0, len(list))
	for _, inc := range list {
		out = append(out, *inc)
	}

	if err := w.cache.SetActive(ctx, out, w.ttl); err != nil {
		w.logger.Error("cache refresh: set failed", slog.Any("error", err))
		return
	}

	w.logger.Debug("incident cache refreshed", slog.Int("active", len(out)))
}
