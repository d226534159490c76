package database

import (
	"log"

	"backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.Section{},
		&model.Department{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.ApprovalTemplate{},
		&model.Document{},
		&model.DocumentMember{},
		&model.ApprovalStep{},
		&model.HistoryEntry{},
		&model.BypassLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
