package checkout

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/checkout/helpers"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// PaymentInfo is what the client reports about the payment it collected.
type PaymentInfo struct {
	Method    enums.PaymentMethod
	Status    enums.PaymentStatus
	PaymentID string
}

// Vendor is the metadata copied onto a child order when available.
type Vendor struct {
	ID             string
	Name           string
	Email          string
	CommissionRate decimal.Decimal
}

// DecomposeInput is everything needed to split a priced cart into orders.
type DecomposeInput struct {
	ParentOrderID   string
	CustomerID      string
	Items           []cart.Item
	Address         types.Address
	Payment         PaymentInfo
	Adjustments     pricing.Adjustments
	ShippingPerItem int64
	Vendors         map[string]Vendor
	CreatedAt       time.Time
}

// Plan is the set of child orders one checkout produces.
type Plan struct {
	ParentOrderID string
	Orders        []orders.Snapshot
	Summary       pricing.Summary
}

// Decompose turns one cart into one child order per line. Shipping is charged
// per line and the discount is spread by units, so the child totals add up to
// the cart's final total exactly.
func Decompose(in DecomposeInput) (Plan, error) {
	parentID := strings.TrimSpace(in.ParentOrderID)
	if parentID == "" {
		return Plan{}, errors.New("parent order id required")
	}
	if len(in.Items) == 0 {
		return Plan{}, errors.New("no items to order")
	}

	summary := pricing.Compute(cart.Lines(in.Items), in.ShippingPerItem, in.Adjustments)
	lineShipping := summary.ShippingPerItem
	if summary.IsFreeShipping || lineShipping < 0 {
		lineShipping = 0
	}

	units := make([]int, len(in.Items))
	caps := make([]int64, len(in.Items))
	for i, item := range in.Items {
		units[i] = item.Quantity
		caps[i] = item.Line().Subtotal() + lineShipping
	}
	discounts := helpers.SplitDiscount(summary.Discount, units, caps)

	status := in.Payment.Status
	if status == "" {
		status = enums.PaymentStatusPending
	}

	plan := Plan{
		ParentOrderID: parentID,
		Orders:        make([]orders.Snapshot, 0, len(in.Items)),
		Summary:       summary,
	}
	for i, item := range in.Items {
		subtotal := item.Line().Subtotal()
		snap := orders.Snapshot{
			OrderID:        helpers.ChildOrderID(parentID, i, len(in.Items)),
			ParentOrderID:  parentID,
			CustomerID:     in.CustomerID,
			Item:           orderItem(item),
			Address:        in.Address,
			PaymentMethod:  in.Payment.Method,
			PaymentStatus:  status,
			PaymentID:      strings.TrimSpace(in.Payment.PaymentID),
			Subtotal:       subtotal,
			Discount:       discounts[i],
			Shipping:       lineShipping,
			Total:          subtotal + lineShipping - discounts[i],
			CouponCode:     summary.CouponCode,
			IsFreeShipping: summary.IsFreeShipping,
			CommissionRate: decimal.Zero,
			OrderStatus:    enums.OrderStatusPending,
			CreatedAt:      in.CreatedAt,
		}
		if vendor, ok := in.Vendors[item.VendorID]; ok && item.VendorID != "" {
			snap.Vendor = &orders.VendorInfo{ID: vendor.ID, Name: vendor.Name, Email: vendor.Email}
			snap.CommissionRate = vendor.CommissionRate
			snap.CommissionAmount = helpers.Commission(subtotal, vendor.CommissionRate)
		}
		plan.Orders = append(plan.Orders, snap)
	}
	return plan, nil
}

func orderItem(item cart.Item) orders.OrderItem {
	return orders.OrderItem{
		ProductID: item.ProductID,
		Name:      item.Name,
		Image:     item.Image,
		Price:     item.Price,
		SalePrice: item.SalePrice,
		Quantity:  item.Quantity,
		Size:      item.Size,
		Color:     item.Color,
		VendorID:  item.VendorID,
	}
}
