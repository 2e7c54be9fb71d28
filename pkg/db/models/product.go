package models

import (
	"time"

	"github.com/lib/pq"
)

// Product is a catalog listing. IDs are the storefront's string keys.
type Product struct {
	ID              string         `gorm:"column:id;primaryKey"`
	Name            string         `gorm:"column:name;not null"`
	Slug            string         `gorm:"column:slug"`
	Description     *string        `gorm:"column:description"`
	Price           int64          `gorm:"column:price;not null"`
	SalePrice       *int64         `gorm:"column:sale_price"`
	CategoryID      *string        `gorm:"column:category_id"`
	BrandID         *string        `gorm:"column:brand_id"`
	VendorID        *string        `gorm:"column:vendor_id"`
	TaxID           *string        `gorm:"column:tax_id"`
	Gender          *string        `gorm:"column:gender"`
	DiscountPercent int            `gorm:"column:discount_percent;not null;default:0"`
	FreeShipping    bool           `gorm:"column:free_shipping;not null;default:false"`
	Sizes           pq.StringArray `gorm:"column:sizes;type:text[]"`
	Colors          pq.StringArray `gorm:"column:colors;type:text[]"`
	Images          pq.StringArray `gorm:"column:images;type:text[]"`
	Stock           int            `gorm:"column:stock;not null;default:0"`
	IsActive        bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePrice is the sale price when set, otherwise the list price.
func (p Product) EffectivePrice() int64 {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}
