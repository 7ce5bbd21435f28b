package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/boni03200-lang/gomasecure/internal/api/handlers/http/admin"
	"github.com/boni03200-lang/gomasecure/internal/api/handlers/http/public"
	"github.com/boni03200-lang/gomasecure/internal/api/handlers/http/system"
	"github.com/boni03200-lang/gomasecure/internal/config"
	"github.com/boni03200-lang/gomasecure/internal/middleware"
	"github.com/boni03200-lang/gomasecure/internal/service"
)

type Server struct {
	logger *slog.Logger
	router *chi.Mux
	cfg    config.Config
}

func NewServer(cfg *config.Config, logger *slog.Logger, svc *service.Service) *Server {
	publicHandler := public.NewHandler(logger, svc.Reports, svc.Votes, svc.Query, svc.Accounts)
	adminHandler := admin.NewHandler(logger, svc.Votes, svc.Stats, svc.Ledger)
	systemHandler := system.NewHandler(logger)

	r := InitRouter(cfg, publicHandler, adminHandler, systemHandler, logger)

	return &Server{
		logger: logger,
		router: r,
		cfg:    *cfg,
	}
}

func InitRouter(cfg *config.Config, publicHandler *public.Handler, adminHandler *admin.Handler, systemHandler *system.Handler, logger *slog.Logger) *chi.Mux {
	r := chi.NewMux()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Logger)

	r.Route("/api/v1", func(api chi.Router) {
		// PUBLIC
		api.Group(func(pr chi.Router) {
			pr.Use(middleware.Limit(10, 20, 5*time.Minute, logger))

			pr.Post("/reports", publicHandler.SubmitReport)

			pr.Route("/incidents", func(ir chi.Router) {
				ir.Get("/", publicHandler.ListIncidents)
				ir.Route("/{id}", func(rr chi.Router) {
					rr.Get("/", publicHandler.GetIncident)
					rr.Post("/votes", publicHandler.CastVote)
				})
			})

			pr.Post("/users", publicHandler.RegisterUser)
			pr.Get("/users/{id}/reputation", publicHandler.GetReputation)
		})

		// ADMIN
		api.Route("/admin", func(ar chi.Router) {
			ar.Use(middleware.APIKeyMiddleware(cfg.APIKey))
			ar.Use(middleware.Limit(2, 5, 10*time.Minute, logger))

			ar.Get("/stats", adminHandler.AdminStats)
			ar.Put("/incidents/{id}/status", adminHandler.AdminSetStatus)
			ar.Post("/users/{id}/promote", adminHandler.AdminPromoteUser)
		})

		// SYSTEM
		api.Get("/health", systemHandler.SystemHealth)
	})

	return r
}

func (s *Server) Run(ctx context.Context) error {
	port := s.cfg.Http.Port
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	srv := &http.Server{
		Addr:         port,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Http.ReadTimeout,
		WriteTimeout: s.cfg.Http.WriteTimeout,
		IdleTimeout:  30 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("Starting HTTP server",
			slog.String("addr", srv.Addr),
			slog.Duration("read_timeout", s.cfg.Http.ReadTimeout),
			slog.Duration("write_timeout", s.cfg.Http.WriteTimeout),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("ListenAndServe error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server", slog.String("reason", ctx.Err().Error()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Http.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Server shutdown failed", slog.Any("error", err))
			return err
		}
		return nil

	case err := <-errChan:
		return err
	}
}
