package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a storefront account.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Name      string         `gorm:"size:255" json:"name"`
	Phone     string         `gorm:"size:64" json:"phone"`
	Active    bool           `json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName maps User to the users table.
func (User) TableName() string {
	return "users"
}
