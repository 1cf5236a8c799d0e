package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/khazandria-api/internal/models"
)

// Migrate creates or updates every table the API owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Activity{},
		&models.Membership{},
		&models.Group{},
		&models.Student{},
		&models.Enrollment{},
		&models.Session{},
		&models.SessionStudent{},
		&models.GlobalGrade{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
