package models

import (
	"time"

	"gorm.io/gorm"
)

// Order is a checkout record. Reference is the customer-facing
// identifier and doubles as the Paystack transaction reference.
type Order struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Reference     string         `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	UserID        uint           `gorm:"index;default:0" json:"user_id"`
	IsGuest       bool           `gorm:"default:false" json:"is_guest"`
	Email         string         `gorm:"size:255;not null" json:"email"`
	Status        string         `gorm:"size:40;index;not null" json:"status"`
	Subtotal      Money          `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	ShippingFee   Money          `gorm:"type:decimal(12,2);not null" json:"shipping_fee"`
	Tax           Money          `gorm:"type:decimal(12,2);not null" json:"tax"`
	TotalAmount   Money          `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Currency      string         `gorm:"size:8;not null" json:"currency"`
	ShippingName  string         `gorm:"size:255" json:"shipping_name"`
	ShippingPhone string         `gorm:"size:64" json:"shipping_phone"`
	ShippingAddr  string         `gorm:"size:512" json:"shipping_address"`
	PaymentRef    string         `gorm:"size:128;index" json:"payment_ref,omitempty"`
	TransactionID string         `gorm:"size:128" json:"transaction_id,omitempty"`
	PaidAt        *time.Time     `json:"paid_at,omitempty"`
	ConfirmedAt   *time.Time     `json:"confirmed_at,omitempty"`
	ConfirmedBy   string         `gorm:"size:128" json:"confirmed_by,omitempty"`
	ShippedAt     *time.Time     `json:"shipped_at,omitempty"`
	DeliveredAt   *time.Time     `json:"delivered_at,omitempty"`
	Notes         StringArray    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// TableName maps Order to the orders table.
func (Order) TableName() string {
	return "orders"
}

// OrderItem is an immutable line snapshot taken at checkout. Product
// fields are copied so later catalog edits never change past orders.
type OrderItem struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	OrderID        uint      `gorm:"index;not null" json:"order_id"`
	ProductID      uint      `gorm:"index;not null" json:"product_id"`
	ProductKind    string    `gorm:"size:32;not null" json:"product_kind"`
	NameSnapshot   string    `gorm:"size:255;not null" json:"name"`
	ImageSnapshot  string    `gorm:"size:512" json:"image"`
	VariationIndex int       `gorm:"not null" json:"variation_index"`
	Size           string    `gorm:"size:16" json:"size,omitempty"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	UnitPrice      Money     `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	LineTotal      Money     `gorm:"type:decimal(12,2);not null" json:"line_total"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName maps OrderItem to the order_items table.
func (OrderItem) TableName() string {
	return "order_items"
}
