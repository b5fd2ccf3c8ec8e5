package models

import (
	"time"
)

const UserTable = "users"

const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleUser    = "user"
)

const (
	UserActive   = "active"
	UserInactive = "inactive"
)

func ValidRole(r string) bool { return r == RoleAdmin || r == RoleTeacher || r == RoleUser }

// Staff roles may approve requests, register returns and manage schedules.
func IsStaff(role string) bool { return role == RoleAdmin || role == RoleTeacher }

type User struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	Name         string `gorm:"size:255;not null" json:"name"`
	Email        string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string `gorm:"size:100;not null" json:"-"`
	Role         string `gorm:"size:20;not null;default:'user';index" json:"role"`
	Phone        string `gorm:"size:50" json:"phone,omitempty"`
	Department   string `gorm:"size:100" json:"department,omitempty"`
	Status       string `gorm:"size:20;not null;default:'active';index" json:"status"`

	LastLoginAt *time.Time `gorm:"index" json:"lastLoginAt,omitempty"`
	LastSeenAt  *time.Time `gorm:"index" json:"lastSeenAt,omitempty"`
	LoginCount  int64      `gorm:"not null;default:0" json:"loginCount"`
	LastLoginIP string     `gorm:"size:45" json:"-"`
	LastLoginUA string     `gorm:"size:255" json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (User) TableName() string {
	return UserTable
}
