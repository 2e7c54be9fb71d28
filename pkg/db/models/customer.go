package models

import (
	"time"

	"github.com/google/uuid"
)

type CustomerAddress struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID string    `gorm:"column:customer_id;not null;index"`
	Name       string    `gorm:"column:name;not null"`
	Phone      string    `gorm:"column:phone;not null"`
	Email      *string   `gorm:"column:email"`
	Street     string    `gorm:"column:street;not null"`
	City       string    `gorm:"column:city;not null"`
	State      string    `gorm:"column:state;not null"`
	Zip        string    `gorm:"column:zip;not null"`
	Country    string    `gorm:"column:country;not null"`
	IsDefault  bool      `gorm:"column:is_default;not null;default:false"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// WishlistItem links a customer to a liked product.
type WishlistItem struct {
	CustomerID string    `gorm:"column:customer_id;primaryKey"`
	ProductID  string    `gorm:"column:product_id;primaryKey"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
