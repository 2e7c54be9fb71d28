package orders

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// OrderItem is the single cart line a child order was created for.
type OrderItem struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	Price     int64  `json:"price"`
	SalePrice *int64 `json:"salePrice,omitempty"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	VendorID  string `json:"vendorId,omitempty"`
}

// VendorInfo is copied onto the order when the vendor could be resolved.
type VendorInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Snapshot is the full child order as written at checkout. The same JSON is
// stored on the global row and on the customer's mirror.
type Snapshot struct {
	OrderID          string              `json:"orderId"`
	ParentOrderID    string              `json:"parentOrderId"`
	CustomerID       string              `json:"customerId"`
	Item             OrderItem           `json:"item"`
	Address          types.Address       `json:"address"`
	PaymentMethod    enums.PaymentMethod `json:"paymentMethod"`
	PaymentStatus    enums.PaymentStatus `json:"paymentStatus"`
	PaymentID        string              `json:"paymentId,omitempty"`
	Subtotal         int64               `json:"subtotal"`
	Discount         int64               `json:"discount"`
	Shipping         int64               `json:"shipping"`
	Total            int64               `json:"total"`
	CouponCode       string              `json:"couponCode,omitempty"`
	IsFreeShipping   bool                `json:"isFreeShipping"`
	Vendor           *VendorInfo         `json:"vendor,omitempty"`
	CommissionRate   decimal.Decimal     `json:"commissionRate"`
	CommissionAmount int64               `json:"commissionAmount"`
	OrderStatus      enums.OrderStatus   `json:"orderStatus"`
	CreatedAt        time.Time           `json:"createdAt"`
}

// Validate checks the amount identity every persisted order must satisfy.
func (s Snapshot) Validate() error {
	if strings.TrimSpace(s.OrderID) == "" || strings.TrimSpace(s.ParentOrderID) == "" {
		return fmt.Errorf("order ids are required")
	}
	if strings.TrimSpace(s.CustomerID) == "" {
		return fmt.Errorf("customer id is required")
	}
	if s.Total != s.Subtotal-s.Discount+s.Shipping {
		return fmt.Errorf("order %s total %d does not equal %d - %d + %d", s.OrderID, s.Total, s.Subtotal, s.Discount, s.Shipping)
	}
	if s.Total < 0 {
		return fmt.Errorf("order %s total is negative", s.OrderID)
	}
	return nil
}

// Rows maps the snapshot onto the global order row and its customer mirror.
func (s Snapshot) Rows() (models.Order, models.CustomerOrder, error) {
	if err := s.Validate(); err != nil {
		return models.Order{}, models.CustomerOrder{}, err
	}
	if s.OrderStatus == "" {
		s.OrderStatus = enums.OrderStatusPending
	}
	if s.PaymentStatus == "" {
		s.PaymentStatus = enums.PaymentStatusPending
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return models.Order{}, models.CustomerOrder{}, fmt.Errorf("encode order snapshot: %w", err)
	}

	order := models.Order{
		OrderID:          s.OrderID,
		ParentOrderID:    s.ParentOrderID,
		CustomerID:       s.CustomerID,
		ProductID:        s.Item.ProductID,
		VendorID:         optional(s.Item.VendorID),
		OrderStatus:      s.OrderStatus,
		PaymentStatus:    s.PaymentStatus,
		PaymentMethod:    s.PaymentMethod,
		PaymentID:        optional(s.PaymentID),
		CouponCode:       optional(s.CouponCode),
		IsFreeShipping:   s.IsFreeShipping,
		Subtotal:         s.Subtotal,
		Discount:         s.Discount,
		Shipping:         s.Shipping,
		Total:            s.Total,
		CommissionRate:   s.CommissionRate,
		CommissionAmount: s.CommissionAmount,
		Snapshot:         raw,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.CreatedAt,
	}
	mirror := models.CustomerOrder{
		CustomerID:    s.CustomerID,
		OrderID:       s.OrderID,
		ParentOrderID: s.ParentOrderID,
		OrderStatus:   s.OrderStatus,
		PaymentStatus: s.PaymentStatus,
		Total:         s.Total,
		Snapshot:      raw,
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.CreatedAt,
	}
	return order, mirror, nil
}

// DecodeSnapshot reads the stored JSON back. Status columns win over the
// snapshot since only they are updated after checkout.
func DecodeSnapshot(raw []byte, status enums.OrderStatus, payment enums.PaymentStatus) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode order snapshot: %w", err)
	}
	if status != "" {
		snap.OrderStatus = status
	}
	if payment != "" {
		snap.PaymentStatus = payment
	}
	return snap, nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
