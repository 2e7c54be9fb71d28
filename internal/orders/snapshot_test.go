package orders

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

func TestSnapshotRowsShareJSON(t *testing.T) {
	snap := Snapshot{
		OrderID:          "ORD1-1",
		ParentOrderID:    "ORD1",
		CustomerID:       "user-1",
		Item:             OrderItem{ProductID: "p-1", Name: "Tee", Price: 600, Quantity: 2, VendorID: "v-1"},
		PaymentMethod:    enums.PaymentMethodCOD,
		Subtotal:         1200,
		Discount:         100,
		Shipping:         80,
		Total:            1180,
		CommissionRate:   decimal.RequireFromString("12.5"),
		CommissionAmount: 150,
		CreatedAt:        time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	order, mirror, err := snap.Rows()
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if order.OrderStatus != enums.OrderStatusPending || mirror.OrderStatus != enums.OrderStatusPending {
		t.Fatalf("expected pending default, got %s / %s", order.OrderStatus, mirror.OrderStatus)
	}
	if order.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("expected pending payment, got %s", order.PaymentStatus)
	}
	if string(order.Snapshot) != string(mirror.Snapshot) {
		t.Fatal("order and mirror must carry the same snapshot")
	}
	if order.VendorID == nil || *order.VendorID != "v-1" {
		t.Fatalf("expected vendor id column, got %v", order.VendorID)
	}
	if order.PaymentID != nil || order.CouponCode != nil {
		t.Fatal("blank optional columns should be NULL")
	}

	decoded, err := DecodeSnapshot(order.Snapshot, enums.OrderStatusShipped, "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.OrderStatus != enums.OrderStatusShipped {
		t.Fatalf("status column should win, got %s", decoded.OrderStatus)
	}
	if decoded.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("payment status should come from snapshot, got %s", decoded.PaymentStatus)
	}
	if !decoded.CommissionRate.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("commission rate lost: %s", decoded.CommissionRate)
	}
}

func TestSnapshotRowsRejectsBrokenTotals(t *testing.T) {
	snap := Snapshot{
		OrderID:       "ORD1",
		ParentOrderID: "ORD1",
		CustomerID:    "user-1",
		Subtotal:      1000,
		Discount:      0,
		Shipping:      50,
		Total:         1000,
	}
	if _, _, err := snap.Rows(); err == nil {
		t.Fatal("expected total mismatch error")
	}

	snap.Total = 1050
	snap.CustomerID = ""
	if _, _, err := snap.Rows(); err == nil {
		t.Fatal("expected missing customer error")
	}
}
