package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistoryAction enum constants. One row is written per lifecycle transition,
// always inside the same transaction as the asset update.
const (
	ActionAssign       = "assign"
	ActionReturn       = "return"
	ActionSendRepair   = "send_repair"
	ActionFinishRepair = "finish_repair"
	ActionAudit        = "audit"
	ActionRelocate     = "relocate"
)

// AssetHistory is an immutable audit-trail entry. Rows are append-only: no
// update or delete path exists anywhere in the codebase.
type AssetHistory struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"asset_id"`
	Asset      *Asset     `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Actor; nil for system-initiated entries
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	EmployeeID *uuid.UUID `gorm:"type:uuid;index" json:"employee_id"` // Subject of the transition
	Employee   *Employee  `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`

	Action       string     `gorm:"type:varchar(30);not null;index" json:"action"`
	StatusBefore string     `gorm:"type:varchar(20);not null" json:"status_before"`
	StatusAfter  string     `gorm:"type:varchar(20);not null" json:"status_after"`
	Condition    string     `gorm:"type:varchar(20)" json:"condition"`
	LocationID   *uuid.UUID `gorm:"type:uuid" json:"location_id"`
	Location     *Location  `gorm:"foreignKey:LocationID" json:"location,omitempty"`
	Notes        string     `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (h *AssetHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
