package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"

	"github.com/boni03200-lang/gomasecure/internal/domain"
	"github.com/boni03200-lang/gomasecure/internal/service"
	mock_service "github.com/boni03200-lang/gomasecure/internal/service/mocks"
	"github.com/boni03200-lang/gomasecure/pkg/e"
)

func TestAccount_Register_OK(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	users := mock_service.NewMockUserRepository(ctrl)

	var got *domain.User
	users.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, u *domain.User) error {
			got = u
			// The store fills the role seed, like the postgres repo does.
			u.ReputationScore = u.Role.SeedScore()
			return nil
		})

	svc := service.NewAccountService(users, testLogger())

	u, err := svc.Register(context.Background(), domain.RegisterUserRequest{
		DisplayName: "amani",
		Role:        domain.RoleSentinel,
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got == nil || u.UID != got.UID {
		t.Fatalf("returned user does not match created one")
	}
	if u.UID == uuid.Nil {
		t.Fatalf("expected UID set")
	}
	if u.Status != domain.UserActive {
		t.Fatalf("status = %s, want ACTIVE", u.Status)
	}
	if u.JoinedAt.IsZero() {
		t.Fatalf("expected JoinedAt set")
	}
	if u.ReputationScore != 80 {
		t.Fatalf("score = %d, want sentinel seed 80", u.ReputationScore)
	}
}

func TestAccount_Register_InvalidRole(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := service.NewAccountService(mock_service.NewMockUserRepository(ctrl), testLogger())

	_, err := svc.Register(context.Background(), domain.RegisterUserRequest{Role: "OVERLORD"})
	if !errors.Is(err, e.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestAccount_Register_RepoError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	users := mock_service.NewMockUserRepository(ctrl)
	users.EXPECT().Create(gomock.Any(), gomock.Any()).Return(e.ErrUniqueViolation)

	svc := service.NewAccountService(users, testLogger())

	_, err := svc.Register(context.Background(), domain.RegisterUserRequest{Role: domain.RoleCitizen})
	if !errors.Is(err, e.ErrUniqueViolation) {
		t.Fatalf("err = %v, want ErrUniqueViolation", err)
	}
}
