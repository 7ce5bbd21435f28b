package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleCitizen       UserRole = "CITIZEN"
	RoleSentinel      UserRole = "SENTINEL"
	RoleAdministrator UserRole = "ADMINISTRATOR"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleCitizen, RoleSentinel, RoleAdministrator:
		return true
	}
	return false
}

// Trusted roles create incidents pre-validated and may issue authority actions.
func (r UserRole) Trusted() bool {
	return r == RoleSentinel || r == RoleAdministrator
}

// SeedScore is the reputation a fresh account of this role starts with.
func (r UserRole) SeedScore() int {
	switch r {
	case RoleSentinel:
		return 80
	case RoleAdministrator:
		return 100
	}
	return 50
}

type UserStatus string

const (
	UserActive UserStatus = "ACTIVE"
	UserBanned UserStatus = "BANNED"
)

type User struct {
	UID             uuid.UUID  `json:"uid"`
	DisplayName     string     `json:"display_name,omitempty"`
	Role            UserRole   `json:"role"`
	Status          UserStatus `json:"status"`
	ReputationScore int        `json:"reputation_score"` // 0..100
	JoinedAt        time.Time  `json:"joined_at"`
}
