// Package glpi is a read-only adapter over a GLPI inventory database. It maps
// the handful of tables needed to resolve hardware specifications by serial
// number; nothing here ever writes to the GLPI schema.
package glpi

import "time"

// Computer mirrors glpi.computers.
type Computer struct {
	ID              uint       `gorm:"primaryKey"`
	Name            string     `gorm:"column:name"`
	Serial          string     `gorm:"column:serial"`
	OtherSerial     string     `gorm:"column:otherserial"`
	UUID            string     `gorm:"column:uuid"`
	Memory          *int       `gorm:"column:memory"` // Aggregate MB, fallback when no memory items exist
	ManufacturerID  *uint      `gorm:"column:manufacturers_id"`
	ComputerModelID *uint      `gorm:"column:computermodels_id"`
	IsDeleted       bool       `gorm:"column:is_deleted"`
	DateMod         *time.Time `gorm:"column:date_mod"`

	Manufacturer *Manufacturer        `gorm:"foreignKey:ManufacturerID"`
	Model        *ComputerModel       `gorm:"foreignKey:ComputerModelID"`
	CPUItems     []ItemProcessor      `gorm:"foreignKey:ItemsID"`
	MemoryItems  []ItemMemory         `gorm:"foreignKey:ItemsID"`
	DiskItems    []ItemHardDrive      `gorm:"foreignKey:ItemsID"`
	OSItems      []ItemOperatingSystem `gorm:"foreignKey:ItemsID"`
}

func (Computer) TableName() string { return "computers" }

// Manufacturer mirrors glpi.manufacturers.
type Manufacturer struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"column:name"`
}

func (Manufacturer) TableName() string { return "manufacturers" }

// ComputerModel mirrors glpi.computermodels.
type ComputerModel struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"column:name"`
}

func (ComputerModel) TableName() string { return "computermodels" }

// ItemProcessor mirrors glpi.items_deviceprocessors.
type ItemProcessor struct {
	ID          uint   `gorm:"primaryKey"`
	ItemsID     uint   `gorm:"column:items_id"`
	ItemType    string `gorm:"column:itemtype"`
	Designation string `gorm:"column:designation"`
	Frequency   int    `gorm:"column:frequency"` // MHz
}

func (ItemProcessor) TableName() string { return "items_deviceprocessors" }

// ItemMemory mirrors glpi.items_devicememories.
type ItemMemory struct {
	ID       uint   `gorm:"primaryKey"`
	ItemsID  uint   `gorm:"column:items_id"`
	ItemType string `gorm:"column:itemtype"`
	Size     int    `gorm:"column:size"` // MB
}

func (ItemMemory) TableName() string { return "items_devicememories" }

// ItemHardDrive mirrors glpi.items_deviceharddrives.
type ItemHardDrive struct {
	ID          uint   `gorm:"primaryKey"`
	ItemsID     uint   `gorm:"column:items_id"`
	ItemType    string `gorm:"column:itemtype"`
	Designation string `gorm:"column:designation"`
	Capacity    int    `gorm:"column:capacity"` // MB
}

func (ItemHardDrive) TableName() string { return "items_deviceharddrives" }

// ItemOperatingSystem mirrors glpi.items_operatingsystems.
type ItemOperatingSystem struct {
	ID                uint   `gorm:"primaryKey"`
	ItemsID           uint   `gorm:"column:items_id"`
	ItemType          string `gorm:"column:itemtype"`
	Name              string `gorm:"column:name"`
	OperatingSystemID *uint  `gorm:"column:operatingsystems_id"`

	OperatingSystem *OperatingSystem `gorm:"foreignKey:OperatingSystemID"`
}

func (ItemOperatingSystem) TableName() string { return "items_operatingsystems" }

// OperatingSystem mirrors glpi.operatingsystems.
type OperatingSystem struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"column:name"`
}

func (OperatingSystem) TableName() string { return "operatingsystems" }
