package glpi

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection opens a handle to the GLPI database. No migration runs here:
// the schema belongs to GLPI and is read-only from this side.
func NewConnection(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}
