package models

import "time"

// CartItem is a pending selection for a user or guest session. For
// guests SessionID holds the anonymous cart token and UserID is zero.
type CartItem struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"index;default:0" json:"user_id"`
	SessionID      string    `gorm:"size:64;index" json:"session_id,omitempty"`
	ProductID      uint      `gorm:"not null" json:"product_id"`
	VariationIndex int       `gorm:"not null" json:"variation_index"`
	Size           string    `gorm:"size:16" json:"size,omitempty"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

// TableName maps CartItem to the cart_items table.
func (CartItem) TableName() string {
	return "cart_items"
}
