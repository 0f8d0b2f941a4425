package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Activity actions for reference-data changes. Lifecycle transitions are
// tracked in AssetHistory instead; this log covers everything else.
const (
	ActivityCreateCategory = "CREATE_CATEGORY"
	ActivityUpdateCategory = "UPDATE_CATEGORY"
	ActivityDeleteCategory = "DELETE_CATEGORY"
	ActivityCreateLocation = "CREATE_LOCATION"
	ActivityUpdateLocation = "UPDATE_LOCATION"
	ActivityDeleteLocation = "DELETE_LOCATION"
	ActivityCreateEmployee = "CREATE_EMPLOYEE"
	ActivityUpdateEmployee = "UPDATE_EMPLOYEE"
	ActivityDeleteEmployee = "DELETE_EMPLOYEE"
	ActivityCreateAsset    = "CREATE_ASSET"
	ActivityUpdateAsset    = "UPDATE_ASSET"
	ActivityDeleteAsset    = "DELETE_ASSET"
	ActivityGlpiSync       = "GLPI_SYNC"
)

// ActivityLog tracks who changed what and when for non-lifecycle mutations.
type ActivityLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"` // Serialized changed-field payload
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
