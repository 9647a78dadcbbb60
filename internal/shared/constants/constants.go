// Package constants defines shared context keys and application-wide values.
package constants

const (
	ContextKeyUserID      = "user_id"
	ContextKeySessionID   = "session_id"
	ContextKeyUserRole    = "user_role"
	ContextKeyDisplayName = "display_name"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)
