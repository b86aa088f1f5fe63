package models

import (
	"time"

	"gorm.io/gorm"
)

// Admin is a back-office account. Passwords are stored as bcrypt hashes.
type Admin struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Username    string         `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Password    string         `gorm:"size:255;not null" json:"-"`
	Email       string         `gorm:"size:255" json:"email"`
	Active      bool           `json:"active"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	LastLoginIP string         `gorm:"size:64" json:"last_login_ip,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName maps Admin to the admins table.
func (Admin) TableName() string {
	return "admins"
}
