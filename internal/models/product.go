package models

import (
	"time"

	"gorm.io/gorm"
)

// Product is a catalog entry. Kind decides how stock is tracked:
// clothing, footwear and headwear hold stock per variation size,
// accessories hold stock directly on each variation.
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Kind        string         `gorm:"size:32;index;not null" json:"kind"`
	Name        string         `gorm:"size:255;not null" json:"name"`
	Slug        string         `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	Price       Money          `gorm:"type:decimal(12,2);not null" json:"price"`
	Images      StringArray    `gorm:"type:text" json:"images"`
	Attributes  JSON           `gorm:"type:text" json:"attributes,omitempty"`
	Active      bool           `gorm:"index" json:"active"`
	TotalStock  int            `gorm:"default:0" json:"total_stock"`
	SortOrder   int            `gorm:"default:0" json:"sort_order"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Variations []ProductVariation `gorm:"foreignKey:ProductID" json:"variations,omitempty"`
}

// TableName maps Product to the products table.
func (Product) TableName() string {
	return "products"
}

// ProductVariation is one colorway of a product. VariationIndex is the
// stable 1-based position clients use to address it, independent of
// row ID.
type ProductVariation struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ProductID      uint      `gorm:"not null;uniqueIndex:idx_product_variation" json:"product_id"`
	VariationIndex int       `gorm:"not null;uniqueIndex:idx_product_variation" json:"variation_index"`
	Color          string    `gorm:"size:64" json:"color"`
	ImageFront     string    `gorm:"size:512" json:"image_front"`
	ImageBack      string    `gorm:"size:512" json:"image_back"`
	Stock          int       `gorm:"default:0" json:"stock"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Sizes []VariationSize `gorm:"foreignKey:VariationID" json:"sizes,omitempty"`
}

// TableName maps ProductVariation to the product_variations table.
func (ProductVariation) TableName() string {
	return "product_variations"
}

// VariationSize is one size bucket of a size-keyed variation.
type VariationSize struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	VariationID uint      `gorm:"index;not null;uniqueIndex:idx_variation_size" json:"variation_id"`
	Label       string    `gorm:"size:16;not null;uniqueIndex:idx_variation_size" json:"label"`
	Stock       int       `gorm:"default:0" json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName maps VariationSize to the variation_sizes table.
func (VariationSize) TableName() string {
	return "variation_sizes"
}
