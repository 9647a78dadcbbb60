package models

import "time"

// UserModel represents the database persistence model for users.
type UserModel struct {
	ID           uint   `gorm:"primarykey"`
	Username     string `gorm:"size:64;uniqueIndex;not null"`
	DisplayName  string `gorm:"size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Role         string `gorm:"size:32;not null;default:analyst"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for GORM
func (UserModel) TableName() string {
	return "users"
}
