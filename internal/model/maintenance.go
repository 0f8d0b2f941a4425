package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaintenanceStatus enum constants
const (
	MaintenanceScheduled  = "scheduled"
	MaintenanceInProgress = "in_progress"
	MaintenanceCompleted  = "completed"
	MaintenanceCanceled   = "canceled"
)

// Maintenance is a scheduled or in-progress repair/service record. Creating
// one for an asset that is not already in MAINTENANCE drives the asset into
// MAINTENANCE; completing or cancelling the last open record drives it back
// to AVAILABLE.
type Maintenance struct {
	ID      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID uuid.UUID  `gorm:"type:uuid;not null;index" json:"asset_id"`
	Asset   *Asset     `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
	UserID  *uuid.UUID `gorm:"type:uuid" json:"user_id"`
	User    *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`

	VendorName  string          `gorm:"type:varchar(255)" json:"vendor_name"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Cost        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"cost"`

	Status      string     `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	ScheduledAt time.Time  `gorm:"not null" json:"scheduled_at"`
	CompletedAt *time.Time `json:"completed_at"` // Set exactly when status becomes completed

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Maintenance) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// IsOpen reports whether the record still pins its asset in MAINTENANCE.
func (m *Maintenance) IsOpen() bool {
	return m.Status == MaintenanceScheduled || m.Status == MaintenanceInProgress
}
