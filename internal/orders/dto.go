package orders

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// OrderSummary is one row of the customer's order history.
type OrderSummary struct {
	OrderID       string              `json:"orderId"`
	ParentOrderID string              `json:"parentOrderId"`
	ProductName   string              `json:"productName"`
	Image         string              `json:"image,omitempty"`
	Quantity      int                 `json:"quantity"`
	Total         int64               `json:"total"`
	OrderStatus   enums.OrderStatus   `json:"orderStatus"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// OrderList is a cursor page of summaries.
type OrderList = pagination.Page[OrderSummary]

// OrderDetail is the full snapshot plus the actions the customer may take.
type OrderDetail struct {
	Snapshot
	CanCancel bool `json:"canCancel"`
}

func summaryFromSnapshot(s Snapshot) OrderSummary {
	return OrderSummary{
		OrderID:       s.OrderID,
		ParentOrderID: s.ParentOrderID,
		ProductName:   s.Item.Name,
		Image:         s.Item.Image,
		Quantity:      s.Item.Quantity,
		Total:         s.Total,
		OrderStatus:   s.OrderStatus,
		PaymentStatus: s.PaymentStatus,
		CreatedAt:     s.CreatedAt,
	}
}

func detailFromSnapshot(s Snapshot) *OrderDetail {
	return &OrderDetail{Snapshot: s, CanCancel: CustomerCanCancel(s.OrderStatus)}
}
