package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleManager    Role = "MANAGER"
	RoleTechnician Role = "TECHNICIAN"
	RoleUser       Role = "USER"
)

// Valid reports whether the role is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleTechnician, RoleUser:
		return true
	}
	return false
}

type User struct {
	// Unique identifier of the user.
	ID uuid.UUID
	// Login email, unique across the system.
	Email        string
	PasswordHash string
	Name         string
	Role         Role
	// Inactive users cannot log in; accounts are deactivated, never deleted.
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserSummary is the denormalized user view embedded into request reads.
type UserSummary struct {
	ID    uuid.UUID
	Name  string
	Email string
	Role  Role
}

// Actor is the resolved (identity, role) pair every operation is called with.
// It is produced by the auth middleware and trusted by the services.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

type RegisterParams struct {
	Email    string
	Password string
	Name     string
	// Honored only when the caller is an administrator; defaults to RoleUser.
	Role *Role
}

type LoginParams struct {
	Email    string
	Password string
}

type LoginResult struct {
	Token string
	User  User
}
