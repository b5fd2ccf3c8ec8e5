package models

import "time"

const ScheduleTable = "schedules"

const (
	SchedulePending   = "pending"
	ScheduleConfirmed = "confirmed"
	ScheduleCancelled = "cancelled"
)

type Schedule struct {
	ID         string `gorm:"type:uuid;primaryKey" json:"id"`
	Subject    string `gorm:"size:200;not null" json:"subject"`
	Class      string `gorm:"column:class;size:100;not null" json:"class"`
	Instructor string `gorm:"size:200;not null" json:"instructor"`
	Room       string `gorm:"size:50;not null;index:idx_schedules_room_date,priority:1" json:"room"`
	Floor      string `gorm:"size:20;not null" json:"floor"`
	Date       Date   `gorm:"not null;index:idx_schedules_room_date,priority:2" json:"date"`
	StartTime  Clock  `gorm:"not null" json:"startTime"`
	EndTime    Clock  `gorm:"not null" json:"endTime"`
	Status     string `gorm:"size:20;not null;index" json:"status"`
	CreatedBy  string `gorm:"type:uuid" json:"createdBy"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Schedule) TableName() string { return ScheduleTable }
