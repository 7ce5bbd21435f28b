package domain_test

import (
	"testing"

	"github.com/boni03200-lang/gomasecure/internal/domain"
)

func TestUserRole_SeedScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role domain.UserRole
		want int
	}{
		{domain.RoleCitizen, 50},
		{domain.RoleSentinel, 80},
		{domain.RoleAdministrator, 100},
	}

	for _, tt := range tests {
		if got := tt.role.SeedScore(); got != tt.want {
			t.Fatalf("SeedScore(%s) = %d, want %d", tt.role, got, tt.want)
		}
	}
}

func TestUserRole_Trusted(t *testing.T) {
	t.Parallel()

	if domain.RoleCitizen.Trusted() {
		t.Fatalf("CITIZEN must not be trusted")
	}
	if !domain.RoleSentinel.Trusted() || !domain.RoleAdministrator.Trusted() {
		t.Fatalf("SENTINEL and ADMINISTRATOR must be trusted")
	}
}
