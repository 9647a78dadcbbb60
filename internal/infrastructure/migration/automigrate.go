package migration

import (
	"opsync/internal/infrastructure/persistence/models"
)

// AutoMigrateModels lists every persistence model managed by AutoMigrate.
func AutoMigrateModels() []interface{} {
	return []interface{}{
		&models.UserModel{},
		&models.SessionModel{},
	}
}
