package service

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/boni03200-lang/gomasecure/internal/domain"
	"github.com/boni03200-lang/gomasecure/pkg/e"
)

type accountService struct {
	users  UserRepository
	logger *slog.Logger
}

func NewAccountService(users UserRepository, logger *slog.Logger) AccountService {
	return &accountService{users: users, logger: logger}
}

// Register creates an active account. The reputation seed is role-keyed and
// applied by the store, so the returned user carries the starting score.
func (s *accountService) Register(ctx context.Context, req domain.RegisterUserRequest) (*domain.User, error) {
	const op = "service.Account.Register"

	if !req.Role.Valid() {
		return nil, fmt.Errorf("%s: role %q: %w", op, req.Role, e.ErrInvalidInput)
	}

	u := &domain.User{
		UID:         uuid.New(),
		DisplayName: req.DisplayName,
		Role:        req.Role,
		Status:      domain.UserActive,
		JoinedAt:    time.Now().UTC(),
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("uid", u.UID.String()),
		slog.String("role", string(u.Role)),
		slog.Int("reputation_score", u.ReputationScore),
	)

	return u, nil
}
