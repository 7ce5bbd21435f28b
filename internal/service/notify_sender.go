package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"net/http"
	"time"

	"log/slog"

	"github.com/boni03200-lang/gomasecure/internal/config"
	"github.com/boni03200-lang/gomasecure/internal/domain"
	"github.com/boni03200-lang/gomasecure/internal/redis"
	"github.com/boni03200-lang/gomasecure/pkg/e"
)

// NotifySender drains queued notification intents and hands them to the
// delivery endpoint. Delivery is at-least-once; duplicates are a UX nuisance,
// not a correctness problem.
type NotifySender struct {
	logger *slog.Logger
	cfg    config.NotifyConfig
	queue  *redis.NotifyQueue
	http   *http.Client
}

func NewNotifySender(logger *slog.Logger, cfg config.NotifyConfig, q *redis.NotifyQueue) *NotifySender {
	return &NotifySender{
		logger: logger,
		cfg:    cfg,
		queue:  q,
		http:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *NotifySender) Run(ctx context.Context) {
	if s.cfg.Disabled {
		s.logger.Warn("notifySender DISABLED via config")
		return
	}
	s.logger.Info("notifySender STARTED", slog.String("url", s.cfg.WebhookURL))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("notifySender STOPPED", slog.String("reason", ctx.Err().Error()))
			return
		default:
		}

		intent, err := s.queue.BRPop(ctx, 5*time.Second)
		if err != nil {
			if errors.Is(err, e.ErrNotifyQueueEmpty) {
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			s.logger.Error("BRPop failed", slog.Any("error", err))
			time.Sleep(500 * time.Millisecond)
			continue
		}

		s.logger.Info("delivering notification",
			slog.String("audience", intent.Audience),
			slog.String("kind", string(intent.Kind)),
		)
		s.sendWithRetry(ctx, intent)
	}
}

func (s *NotifySender) sendWithRetry(ctx context.Context, intent domain.NotificationIntent) {
	const maxRetries = 3

	body, err := json.Marshal(intent)
	if err != nil {
		s.logger.Error("marshal notification intent failed", slog.String("error", err.Error()))
		return
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			s.logger.Info("stop retries due to context cancel")
			return
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(body))
		if err != nil {
			s.logger.Error("create notification request failed", slog.String("error", err.Error()))
			return
		}

		req.Header.Set("Content-Type", "application/json")

		resp, err := s.http.Do(req)
		if err == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}

		reason := "unknown"
		if err != nil {
			reason = err.Error()
		} else if resp != nil {
			reason = resp.Status
		}

		s.logger.Warn("notification delivery failed",
			slog.Int("attempt", attempt),
			slog.String("url", s.cfg.WebhookURL),
			slog.String("reason", reason),
		)

		time.Sleep(time.Duration(attempt) * time.Second)
	}
}
