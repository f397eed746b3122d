package database

import (
	"github.com/clipstream/account-service/internal/model"
	"gorm.io/gorm"
)

// AutoMigrate creates/updates the schema for all registered models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
	)
}
