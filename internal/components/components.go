package components

import (
	"context"
	"fmt"
	"os"
	"time"

	"log/slog"

	"github.com/boni03200-lang/gomasecure/internal/api"
	"github.com/boni03200-lang/gomasecure/internal/config"
	"github.com/boni03200-lang/gomasecure/internal/redis"
	"github.com/boni03200-lang/gomasecure/internal/service"
	"github.com/boni03200-lang/gomasecure/internal/storage/postgres"
	"github.com/boni03200-lang/gomasecure/internal/workers"
)

type Components struct {
	logger     *slog.Logger
	HttpServer *api.Server
	Postgres   *postgres.Postgres
	Redis      *redis.Redis
	Notifier   *service.NotifySender
	Refresher  *workers.CacheRefresher
}

func InitComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	logger.Info("Initializing Postgres")

	storage, err := postgres.NewPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to init postgres",
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("failed to init postgres: %w", err)
	}

	logger.Info("Initializing Redis")
	redisClient, err := redis.NewRedis(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init redis: %w", err)
	}

	notifyQueue := redis.NewNotifyQueue(redisClient.Client, "notifications:queue")
	incidentCache := redis.NewIncidentCache(redisClient)

	ledger := service.NewReputationLedger(storage.Users, notifyQueue, logger, cfg.Engine.PromotionThreshold)
	scoring := service.NewScoringCoordinator(ledger, logger)
	reports := service.NewCorrelationService(
		storage.Incidents, storage.Users, scoring, notifyQueue, incidentCache,
		cfg.Engine.MergeRadiusM, cfg.Engine.MergeBonus, logger,
	)
	votes := service.NewValidationService(
		storage.Incidents, storage.Users, scoring, notifyQueue, incidentCache,
		cfg.Engine.AutoValidateThreshold, cfg.Engine.LikeDelta, cfg.Engine.DislikeDelta, logger,
	)
	query := service.NewQueryService(storage.Incidents, storage.Users, incidentCache, cfg.Engine.CacheTTL, logger)
	stats := service.NewStatsService(storage.Stat)
	accounts := service.NewAccountService(storage.Users, logger)

	srv := service.NewService(reports, votes, query, stats, ledger, accounts)

	httpServer := api.NewServer(cfg, logger, srv)
	logger.Info("Initialized server")

	notifier := service.NewNotifySender(logger, cfg.Notify, notifyQueue)
	refresher := workers.NewCacheRefresher(storage.Incidents, incidentCache,
		cfg.Engine.CacheRefreshInterval, cfg.Engine.CacheTTL, logger)

	return &Components{
		logger:     logger,
		HttpServer: httpServer,
		Postgres:   storage,
		Redis:      redisClient,
		Notifier:   notifier,
		Refresher:  refresher,
	}, nil
}

func SetupLogger(env string) *slog.Logger {
	switch env {
	case "local":
		return slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	case "dev":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	case "prod":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	default:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	}
}

func (c *Components) ShutdownAll() {
	start := time.Now()
	c.logger.Info("component shutdown started")

	c.Postgres.Pool.Close()
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.logger.Error("Redis close failed", slog.String("err", err.Error()))
		}
	}

	c.logger.Info("all components stopped",
		slog.Duration("latency", time.Since(start)))
}
