package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Order is the global record of one child order.
type Order struct {
	OrderID          string              `gorm:"column:order_id;primaryKey"`
	ParentOrderID    string              `gorm:"column:parent_order_id;not null;index"`
	CustomerID       string              `gorm:"column:customer_id;not null;index"`
	ProductID        string              `gorm:"column:product_id;not null"`
	VendorID         *string             `gorm:"column:vendor_id"`
	OrderStatus      enums.OrderStatus   `gorm:"column:order_status;not null"`
	PaymentStatus    enums.PaymentStatus `gorm:"column:payment_status;not null"`
	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;not null"`
	PaymentID        *string             `gorm:"column:payment_id"`
	CouponCode       *string             `gorm:"column:coupon_code"`
	IsFreeShipping   bool                `gorm:"column:is_free_shipping;not null;default:false"`
	Subtotal         int64               `gorm:"column:subtotal;not null"`
	Discount         int64               `gorm:"column:discount;not null"`
	Shipping         int64               `gorm:"column:shipping;not null"`
	Total            int64               `gorm:"column:total;not null"`
	CommissionRate   decimal.Decimal     `gorm:"column:commission_rate;type:numeric(5,2);not null;default:0"`
	CommissionAmount int64               `gorm:"column:commission_amount;not null;default:0"`
	Snapshot         json.RawMessage     `gorm:"column:snapshot;type:jsonb;not null"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
	CancelledAt      *time.Time          `gorm:"column:cancelled_at"`
}

// CustomerOrder mirrors Order under the owning customer for account views.
type CustomerOrder struct {
	CustomerID    string              `gorm:"column:customer_id;primaryKey"`
	OrderID       string              `gorm:"column:order_id;primaryKey"`
	ParentOrderID string              `gorm:"column:parent_order_id;not null"`
	OrderStatus   enums.OrderStatus   `gorm:"column:order_status;not null"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null"`
	Total         int64               `gorm:"column:total;not null"`
	Snapshot      json.RawMessage     `gorm:"column:snapshot;type:jsonb;not null"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderPayment binds a gateway payment id to the one checkout that used it.
type OrderPayment struct {
	PaymentID     string    `gorm:"column:payment_id;primaryKey"`
	ParentOrderID string    `gorm:"column:parent_order_id;not null;index"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}
