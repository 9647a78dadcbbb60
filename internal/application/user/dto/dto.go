// Package dto defines the transport representations of analyst identities.
package dto

import (
	"time"

	"opsync/internal/domain/user"
)

// UserDTO is the API representation of an analyst. The password hash never
// leaves the application layer.
type UserDTO struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewUserDTO converts a domain user to its transport form.
func NewUserDTO(u *user.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        u.Role.String(),
		CreatedAt:   u.CreatedAt,
	}
}
