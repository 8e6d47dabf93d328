package db

import (
	"fmt"

	"github.com/woodline-crm/woodquota/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the schema for every persisted model.
//
// Databases created before returns were tracked lack the cancelled_at
// column on claims; AutoMigrate backfills it the same way it adds any other
// missing column, so no manual ALTER is needed here.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errMigrate := conn.AutoMigrate(
		&models.User{},
		&models.QuotaOverride{},
		&models.Claim{},
		&models.Setting{},
		&models.Announcement{},
	); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}
	return nil
}
