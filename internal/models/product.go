package models

import (
	"time"
)

// Product represents one sellable item in the catalog
type Product struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	SKU       string    `json:"sku" gorm:"type:varchar(64);not null;unique;index"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null;index"`
	Brand     string    `json:"brand" gorm:"type:varchar(255);index"`
	Category  string    `json:"category" gorm:"type:varchar(255);index"`
	Color     string    `json:"color" gorm:"type:varchar(64)"`
	Size      string    `json:"size" gorm:"type:varchar(16)"`
	Price     float64   `json:"price" gorm:"not null"`
	Stock     int       `json:"stock" gorm:"default:0"`
	IsActive  bool      `json:"is_active" gorm:"default:true;index"`
	// Optional merchandising details, absent for basic items.
	Details *ProductDetails `json:"details,omitempty" gorm:"embedded;embeddedPrefix:detail_"`
}

// ProductDetails holds optional merchandising attributes for a product.
type ProductDetails struct {
	Material string     `json:"material" gorm:"type:varchar(255)"`
	Season   string     `json:"season" gorm:"type:varchar(32)"`
	SaleEnds *time.Time `json:"sale_ends,omitempty"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}
