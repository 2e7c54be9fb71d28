package models

import "github.com/google/uuid"

// ShippingRate is one leaf of the country -> state -> city price tree.
type ShippingRate struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Country string    `gorm:"column:country;not null"`
	State   string    `gorm:"column:state;not null"`
	City    string    `gorm:"column:city;not null"`
	Price   int64     `gorm:"column:price;not null"`
}
