// Package pricing turns cart lines, a shipping quote and a coupon outcome
// into the amounts shown at checkout.
package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

var maxAmount = decimal.NewFromInt(math.MaxInt64)

// Line is one priced cart line.
type Line struct {
	ProductID string `json:"productId"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

// Subtotal is UnitPrice * Quantity, saturating at math.MaxInt64. CheckLines
// rejects lines that reach it.
func (l Line) Subtotal() int64 {
	return clamp(l.exact())
}

func (l Line) exact() decimal.Decimal {
	return decimal.NewFromInt(l.UnitPrice).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func clamp(d decimal.Decimal) int64 {
	if d.GreaterThan(maxAmount) {
		return math.MaxInt64
	}
	return d.IntPart()
}

// CheckLines rejects negative lines and lines whose total does not fit int64.
func CheckLines(lines []Line) error {
	total := decimal.Zero
	for _, l := range lines {
		if l.UnitPrice < 0 || l.Quantity < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "line amounts must not be negative").
				WithDetails(map[string]string{"productId": l.ProductID})
		}
		total = total.Add(l.exact())
		if total.GreaterThan(maxAmount) {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart total out of range").
				WithDetails(map[string]string{"productId": l.ProductID})
		}
	}
	return nil
}

// Adjustments are the coupon effects applied on top of the lines.
type Adjustments struct {
	CouponCode     string
	Discount       int64
	IsFreeShipping bool
}

// Summary is the priced cart. FinalTotal == Subtotal - Discount + ShippingTotal.
type Summary struct {
	Lines           []Line `json:"lines"`
	LineCount       int    `json:"lineCount"`
	Units           int    `json:"units"`
	Subtotal        int64  `json:"subtotal"`
	ShippingPerItem int64  `json:"shippingPerItem"`
	ShippingTotal   int64  `json:"shippingTotal"`
	Discount        int64  `json:"discount"`
	IsFreeShipping  bool   `json:"isFreeShipping"`
	CouponCode      string `json:"couponCode,omitempty"`
	FinalTotal      int64  `json:"finalTotal"`
}

// Subtotal sums line totals.
func Subtotal(lines []Line) int64 {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.exact())
	}
	return clamp(total)
}

// Compute prices the lines. Shipping is charged once per distinct line, not
// per unit, and is zeroed under free shipping.
func Compute(lines []Line, shippingPerItem int64, adj Adjustments) Summary {
	s := Summary{
		Lines:           lines,
		LineCount:       len(lines),
		Subtotal:        Subtotal(lines),
		ShippingPerItem: shippingPerItem,
		IsFreeShipping:  adj.IsFreeShipping,
		CouponCode:      adj.CouponCode,
	}
	for _, l := range lines {
		s.Units += l.Quantity
	}
	if !adj.IsFreeShipping && shippingPerItem > 0 {
		s.ShippingTotal = shippingPerItem * int64(len(lines))
	}
	s.Discount = adj.Discount
	if s.Discount < 0 {
		s.Discount = 0
	}
	if s.Discount > s.Subtotal {
		s.Discount = s.Subtotal
	}
	s.FinalTotal = s.Subtotal - s.Discount + s.ShippingTotal
	return s
}
