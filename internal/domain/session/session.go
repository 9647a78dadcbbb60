// Package session contains the authenticated-session domain entity and
// repository contract backing the session registry.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"opsync/internal/shared/biztime"
)

type Session struct {
	ID             string
	UserID         uint
	Username       string
	DisplayName    string
	IPAddress      string
	UserAgent      string
	ExpiresAt      time.Time
	LastActivityAt time.Time
	CreatedAt      time.Time
}

func NewSession(userID uint, username, displayName, ipAddress, userAgent string, expiresAt time.Time) (*Session, error) {
	if userID == 0 {
		return nil, fmt.Errorf("user ID is required")
	}

	id, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := biztime.NowUTC()
	if !expiresAt.After(now) {
		return nil, fmt.Errorf("session expiry must be in the future")
	}

	return &Session{
		ID:             id,
		UserID:         userID,
		Username:       username,
		DisplayName:    displayName,
		IPAddress:      ipAddress,
		UserAgent:      userAgent,
		ExpiresAt:      expiresAt,
		LastActivityAt: now,
		CreatedAt:      now,
	}, nil
}

func (s *Session) IsExpired() bool {
	return biztime.NowUTC().After(s.ExpiresAt)
}

func (s *Session) UpdateActivity() {
	s.LastActivityAt = biztime.NowUTC()
}

func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
