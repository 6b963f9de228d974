package database

import (
	"fmt"

	"air_quality_api/logger"
	"air_quality_api/models"

	"gorm.io/gorm"
)

// Migrate brings the schema up to date for all registered models.
func Migrate(db *gorm.DB) error {
	logger.Println("Running database migrations...")

	if err := db.AutoMigrate(models.GetAllModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Println("✓ Database schema is up to date")
	return nil
}
