package payloads

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// OrderLine is one child order inside an OrderCreatedEvent.
type OrderLine struct {
	OrderID   string `json:"orderId"`
	ProductID string `json:"productId"`
	VendorID  string `json:"vendorId,omitempty"`
	Quantity  int    `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
	Discount  int64  `json:"discount"`
	Shipping  int64  `json:"shipping"`
	Total     int64  `json:"total"`
}

// OrderCreatedEvent is emitted once per checkout, keyed by the parent order.
type OrderCreatedEvent struct {
	ParentOrderID  string              `json:"parentOrderId"`
	CustomerID     string              `json:"customerId"`
	Orders         []OrderLine         `json:"orders"`
	CouponCode     string              `json:"couponCode,omitempty"`
	IsFreeShipping bool                `json:"isFreeShipping"`
	PaymentMethod  enums.PaymentMethod `json:"paymentMethod"`
	PaymentStatus  enums.PaymentStatus `json:"paymentStatus"`
	FinalTotal     int64               `json:"finalTotal"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// OrderCanceledEvent is emitted when a child order is cancelled.
type OrderCanceledEvent struct {
	OrderID       string    `json:"orderId"`
	ParentOrderID string    `json:"parentOrderId"`
	CustomerID    string    `json:"customerId"`
	VendorID      string    `json:"vendorId,omitempty"`
	Total         int64     `json:"total"`
	CanceledAt    time.Time `json:"canceledAt"`
	Reason        string    `json:"reason,omitempty"`
}

// OrderStateChangedEvent records any other status transition.
type OrderStateChangedEvent struct {
	OrderID       string            `json:"orderId"`
	ParentOrderID string            `json:"parentOrderId"`
	CustomerID    string            `json:"customerId"`
	From          enums.OrderStatus `json:"from"`
	To            enums.OrderStatus `json:"to"`
	ChangedAt     time.Time         `json:"changedAt"`
}

// PaymentSettledEvent is emitted when reconciliation confirms a gateway payment.
type PaymentSettledEvent struct {
	OrderID       string    `json:"orderId"`
	ParentOrderID string    `json:"parentOrderId"`
	CustomerID    string    `json:"customerId"`
	PaymentID     string    `json:"paymentId"`
	Amount        int64     `json:"amount"`
	SettledAt     time.Time `json:"settledAt"`
}

// CouponsExpiredEvent lists coupons flagged by the expiry sweep.
type CouponsExpiredEvent struct {
	Codes     []string  `json:"codes"`
	ExpiredAt time.Time `json:"expiredAt"`
}
