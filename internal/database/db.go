package database

import (
	"log"

	"assettrack/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes the primary connection pool using GORM.
// TranslateError is required: the asset tag generator relies on unique
// violations surfacing as gorm.ErrDuplicatedKey.
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate auto-migrates the core models. Split out so tests can run the same
// schema against the sqlite driver.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Location{},
		&model.Employee{},
		&model.Asset{},
		&model.AssetHistory{},
		&model.LoanRequest{},
		&model.Maintenance{},
		&model.ActivityLog{},
	)
}
