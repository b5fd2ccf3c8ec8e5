package models

import "time"

const BorrowRequestTable = "borrow_requests"

const (
	RequestPending  = "pending"
	RequestApproved = "approved"
	RequestRejected = "rejected"
	RequestReturned = "returned"
)

// ActiveRequestStatuses hold a reservation on the equipment.
var ActiveRequestStatuses = []string{RequestPending, RequestApproved}

func ValidRequestStatus(s string) bool {
	switch s {
	case RequestPending, RequestApproved, RequestRejected, RequestReturned:
		return true
	}
	return false
}

type BorrowRequest struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	EquipmentID string `gorm:"type:uuid;index;not null" json:"equipmentId"`
	UserID      string `gorm:"type:uuid;index;not null" json:"userId"`
	BorrowDate  Date   `gorm:"not null" json:"borrowDate"`
	ReturnDate  Date   `gorm:"not null" json:"returnDate"`
	Purpose     string `gorm:"type:text" json:"purpose"`
	Status      string `gorm:"size:20;not null;default:'pending';index" json:"status"`

	ApprovedBy       *string    `gorm:"type:uuid" json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time `json:"approvedAt,omitempty"`
	Notes            string     `gorm:"type:text" json:"notes,omitempty"`
	ActualReturnDate *time.Time `json:"actualReturnDate,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (BorrowRequest) TableName() string { return BorrowRequestTable }
