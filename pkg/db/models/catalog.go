package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Name        string    `gorm:"column:name;not null"`
	Slug        string    `gorm:"column:slug"`
	Description *string   `gorm:"column:description"`
	Image       *string   `gorm:"column:image"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

type Brand struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	Logo      *string   `gorm:"column:logo"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// Vendor sells products; CommissionRate is a percentage.
type Vendor struct {
	ID             string          `gorm:"column:id;primaryKey"`
	Name           string          `gorm:"column:name;not null"`
	Email          *string         `gorm:"column:email"`
	Phone          *string         `gorm:"column:phone"`
	CommissionRate decimal.Decimal `gorm:"column:commission_rate;type:numeric(5,2);not null;default:0"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}

type Tax struct {
	ID        string          `gorm:"column:id;primaryKey"`
	Name      string          `gorm:"column:name;not null"`
	Rate      decimal.Decimal `gorm:"column:rate;type:numeric(5,2);not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
