// Package dto defines the transport representations of analyst sessions.
package dto

import (
	"time"

	"opsync/internal/domain/session"
)

// SessionDTO is the admin-facing view of an active session.
type SessionDTO struct {
	ID             string    `json:"id"`
	UserID         uint      `json:"user_id"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"display_name"`
	IPAddress      string    `json:"ip_address"`
	UserAgent      string    `json:"user_agent"`
	ExpiresAt      time.Time `json:"expires_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewSessionDTO converts a domain session to its transport form.
func NewSessionDTO(s *session.Session) *SessionDTO {
	if s == nil {
		return nil
	}
	return &SessionDTO{
		ID:             s.ID,
		UserID:         s.UserID,
		Username:       s.Username,
		DisplayName:    s.DisplayName,
		IPAddress:      s.IPAddress,
		UserAgent:      s.UserAgent,
		ExpiresAt:      s.ExpiresAt,
		LastActivityAt: s.LastActivityAt,
		CreatedAt:      s.CreatedAt,
	}
}

// NewSessionDTOs converts a slice of domain sessions.
func NewSessionDTOs(sessions []*session.Session) []*SessionDTO {
	dtos := make([]*SessionDTO, len(sessions))
	for i, s := range sessions {
		dtos[i] = NewSessionDTO(s)
	}
	return dtos
}
