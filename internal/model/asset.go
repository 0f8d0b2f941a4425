package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssetStatus enum constants
const (
	StatusAvailable   = "AVAILABLE"
	StatusBorrowed    = "BORROWED"
	StatusMaintenance = "MAINTENANCE"
	StatusLost        = "LOST"
	StatusDisposed    = "DISPOSED"
)

// AssetCondition enum constants
const (
	ConditionGood   = "GOOD"
	ConditionBad    = "BAD"
	ConditionBroken = "BROKEN"
)

// LoanType enum constants
const (
	LoanShortTerm = "SHORT_TERM"
	LoanLongTerm  = "LONG_TERM"
)

// HardwareSpecs is the enrichment blob pulled from GLPI, stored as a jsonb column.
type HardwareSpecs struct {
	CPU     string `json:"cpu,omitempty"`
	RAM     string `json:"ram,omitempty"`
	Storage string `json:"storage,omitempty"`
	OS      string `json:"os,omitempty"`
	UUID    string `json:"uuid,omitempty"`
}

// Value implements driver.Valuer so gorm can persist the struct as JSON.
func (h HardwareSpecs) Value() (driver.Value, error) {
	return json.Marshal(h)
}

// Scan implements sql.Scanner for reading the JSON column back.
func (h *HardwareSpecs) Scan(value interface{}) error {
	if value == nil {
		*h = HardwareSpecs{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, h)
	case string:
		return json.Unmarshal([]byte(v), h)
	default:
		return errors.New("hardware_specs: unsupported column type")
	}
}

// Asset represents a tracked physical item. The asset row is the
// serialization point for every lifecycle transition.
type Asset struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AssetTag     *string   `gorm:"type:varchar(50);uniqueIndex" json:"asset_tag"` // Immutable once set
	SerialNumber string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"serial_number"`

	Name         string `gorm:"type:varchar(255)" json:"name"`
	Brand        string `gorm:"type:varchar(100)" json:"brand"`
	Model        string `gorm:"type:varchar(100)" json:"model"`
	Vendor       string `gorm:"type:varchar(100)" json:"vendor"`
	PurchaseYear *int   `gorm:"type:int" json:"purchase_year"`
	Period       *int   `gorm:"type:int" json:"period"` // Warranty period in years

	CategoryID uuid.UUID  `gorm:"type:uuid;not null;index" json:"category_id"`
	Category   *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	LocationID uuid.UUID  `gorm:"type:uuid;not null;index" json:"location_id"`
	Location   *Location  `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	EmployeeID *uuid.UUID `gorm:"type:uuid;index" json:"employee_id"` // Current holder, only while BORROWED
	Employee   *Employee  `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`

	Status    string     `gorm:"type:varchar(20);not null;default:'AVAILABLE';index" json:"status"`
	Condition string     `gorm:"type:varchar(20);not null;default:'GOOD'" json:"condition"`
	LoanType  *string    `gorm:"type:varchar(20)" json:"loan_type"`
	DueDate   *time.Time `gorm:"type:date" json:"due_date"` // Meaningful only for SHORT_TERM loans

	LastAuditDate *time.Time    `json:"last_audit_date"`
	LastSeenAt    *time.Time    `json:"last_seen_at"` // Last time GLPI reported the device
	HardwareSpecs HardwareSpecs `gorm:"type:jsonb" json:"hardware_specs"`
	ManualLink    string        `gorm:"type:text" json:"manual_link"`

	Histories []AssetHistory `gorm:"foreignKey:AssetID" json:"histories,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns the id client-side so the same models work on
// postgres and the sqlite test database.
func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ExpiryYear derives the warranty expiry year. Nil when purchase data is incomplete.
func (a *Asset) ExpiryYear() *int {
	if a.PurchaseYear == nil || a.Period == nil {
		return nil
	}
	y := *a.PurchaseYear + *a.Period
	return &y
}

// IsActive reports whether the asset is still inside its warranty window.
func (a *Asset) IsActive(now time.Time) bool {
	expiry := a.ExpiryYear()
	if expiry == nil {
		return false
	}
	return now.Year() <= *expiry
}

// AuditOverdueWindow is how stale a physical audit may get before the asset
// is flagged for re-verification.
const AuditOverdueWindow = 3 * 30 * 24 * time.Hour

// IsAuditOverdue reports whether the asset needs a physical audit. Derived at
// query time, never stored.
func (a *Asset) IsAuditOverdue(now time.Time) bool {
	return a.LastAuditDate == nil || a.LastAuditDate.Before(now.Add(-AuditOverdueWindow))
}
