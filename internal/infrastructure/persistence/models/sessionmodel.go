package models

import "time"

// SessionModel represents the database persistence model for sessions.
type SessionModel struct {
	ID             string `gorm:"primarykey;size:64"`
	UserID         uint   `gorm:"not null;index"`
	Username       string `gorm:"size:64;not null"`
	DisplayName    string `gorm:"size:128"`
	IPAddress      string `gorm:"size:45"`
	UserAgent      string `gorm:"size:512"`
	ExpiresAt      time.Time `gorm:"not null;index"`
	LastActivityAt time.Time `gorm:"not null;index"`
	CreatedAt      time.Time
}

// TableName specifies the table name for GORM
func (SessionModel) TableName() string {
	return "sessions"
}
