package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoanStatus enum constants
const (
	LoanPending  = "PENDING"
	LoanApproved = "APPROVED"
	LoanRejected = "REJECTED"
	LoanReturned = "RETURNED"
)

// LoanRequest is an employee's request to borrow a specific asset. Terminal
// states are set once by an approver; an approval drives the lifecycle
// engine's assign transition in the same transaction.
type LoanRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AssetID    uuid.UUID `gorm:"type:uuid;not null;index" json:"asset_id"`
	Asset      *Asset    `gorm:"foreignKey:AssetID" json:"asset,omitempty"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index" json:"employee_id"`
	Employee   *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`

	LoanType  string    `gorm:"type:varchar(20);not null;default:'SHORT_TERM'" json:"loan_type"`
	StartDate time.Time `gorm:"type:date;not null" json:"start_date"`
	DueDate   time.Time `gorm:"type:date;not null" json:"due_date"`
	Reason    string    `gorm:"type:varchar(255)" json:"reason"`

	Status          string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	AdminID         *uuid.UUID `gorm:"type:uuid" json:"admin_id"`
	Admin           *User      `gorm:"foreignKey:AdminID" json:"admin,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *LoanRequest) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
