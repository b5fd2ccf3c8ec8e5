package models

import "time"

const EquipmentTable = "equipment"

const (
	EquipmentAvailable   = "available"
	EquipmentBorrowed    = "borrowed"
	EquipmentMaintenance = "maintenance"
	EquipmentBroken      = "broken"
)

func ValidEquipmentStatus(s string) bool {
	switch s {
	case EquipmentAvailable, EquipmentBorrowed, EquipmentMaintenance, EquipmentBroken:
		return true
	}
	return false
}

type Equipment struct {
	ID           string `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string `gorm:"size:200;not null" json:"name"`
	Type         string `gorm:"size:100;not null;index" json:"type"`
	Location     string `gorm:"size:200;not null" json:"location"`
	Description  string `gorm:"type:text" json:"description"`
	SerialNumber string `gorm:"size:120;uniqueIndex;not null" json:"serialNumber"`
	Status       string `gorm:"size:20;not null;default:'available';index" json:"status"`

	// set together while status is borrowed, cleared otherwise
	BorrowedBy *string    `gorm:"type:uuid" json:"borrowedBy,omitempty"`
	BorrowedAt *time.Time `json:"borrowedAt,omitempty"`
	ReturnDate *Date      `json:"returnDate,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Equipment) TableName() string { return EquipmentTable }
