// Package user contains the analyst identity entity consumed by
// authentication and the lock service.
package user

import (
	"fmt"
	"time"

	"opsync/internal/shared/authorization"
	"opsync/internal/shared/biztime"
)

type User struct {
	ID           uint
	Username     string
	DisplayName  string
	PasswordHash string
	Role         authorization.UserRole
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewUser(username, displayName, passwordHash string, role authorization.UserRole) (*User, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if passwordHash == "" {
		return nil, fmt.Errorf("password hash is required")
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid role: %s", role)
	}
	if displayName == "" {
		displayName = username
	}

	now := biztime.NowUTC()
	return &User{
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) IsAdmin() bool {
	return u.Role.IsAdmin()
}
