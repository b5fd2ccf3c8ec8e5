package models

import "time"

const ActivityLogTable = "activity_logs"

// activity types
const (
	ActivityBorrowRequested   = "borrow_requested"
	ActivityBorrowApproved    = "borrow_approved"
	ActivityBorrowRejected    = "borrow_rejected"
	ActivityEquipmentReturned = "equipment_returned"
	ActivityEquipmentCreated  = "equipment_created"
	ActivityEquipmentUpdated  = "equipment_updated"
	ActivityEquipmentDeleted  = "equipment_deleted"
	ActivityScheduleCreated   = "schedule_created"
	ActivityScheduleUpdated   = "schedule_updated"
	ActivityScheduleDeleted   = "schedule_deleted"
	ActivityUserCreated       = "user_created"
	ActivityUserStatusChanged = "user_status_changed"
	ActivityUserDeleted       = "user_deleted"
)

// entity types
const (
	EntityBorrowRequest = "borrow_request"
	EntityEquipment     = "equipment"
	EntitySchedule      = "schedule"
	EntityUser          = "user"
)

// ActivityLog is append-only. EntityID is a weak reference and may point at a
// row that no longer exists.
type ActivityLog struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string    `gorm:"type:uuid;index" json:"userId"`
	Type        string    `gorm:"size:50;not null;index" json:"type"`
	Description string    `gorm:"type:text" json:"description"`
	EntityType  string    `gorm:"size:50" json:"entityType"`
	EntityID    string    `gorm:"size:64" json:"entityId"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
}

func (ActivityLog) TableName() string { return ActivityLogTable }
