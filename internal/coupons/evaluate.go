package coupons

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

const (
	ReasonNotFound      = "Invalid coupon code"
	ReasonInactive      = "Coupon is not active"
	ReasonExpired       = "Coupon has expired"
	ReasonNotYetValid   = "Coupon is not yet valid"
	ReasonUsageExceeded = "Coupon usage limit reached"
	ReasonInvalidType   = "Invalid discount type"
)

// Result is the outcome of evaluating a coupon against a subtotal.
type Result struct {
	Code           string `json:"code,omitempty"`
	Valid          bool   `json:"valid"`
	Reason         string `json:"reason,omitempty"`
	Discount       int64  `json:"discount"`
	IsFreeShipping bool   `json:"isFreeShipping"`
}

func reject(code, reason string) Result {
	return Result{Code: code, Valid: false, Reason: reason}
}

// Evaluate applies the validation rules in order; the first failing check wins.
func Evaluate(subtotal int64, coupon *Coupon, now time.Time) Result {
	if coupon == nil {
		return reject("", ReasonNotFound)
	}
	code := coupon.Code
	if !coupon.Active {
		return reject(code, ReasonInactive)
	}
	if coupon.Expired {
		return reject(code, ReasonExpired)
	}
	if coupon.ValidFrom != nil && now.Before(*coupon.ValidFrom) {
		return reject(code, ReasonNotYetValid)
	}
	if coupon.ValidTo != nil && now.After(*coupon.ValidTo) {
		return reject(code, ReasonExpired)
	}
	if subtotal < coupon.MinSpend {
		return reject(code, fmt.Sprintf("Minimum spend of %d required", coupon.MinSpend))
	}
	if coupon.UsageLimit > 0 && coupon.UsageCount >= coupon.UsageLimit {
		return reject(code, ReasonUsageExceeded)
	}
	if coupon.TotalQuantity > 0 && coupon.UsageCount >= coupon.TotalQuantity {
		return reject(code, ReasonUsageExceeded)
	}

	var discount decimal.Decimal
	switch coupon.Type {
	case enums.DiscountTypeFreeShipping:
		return Result{Code: code, Valid: true, IsFreeShipping: true}
	case enums.DiscountTypePercentage:
		discount = decimal.NewFromInt(subtotal).Mul(coupon.Value).Div(decimal.NewFromInt(100)).Floor()
	case enums.DiscountTypeFixed:
		discount = coupon.Value.Floor()
	default:
		return reject(code, ReasonInvalidType)
	}

	return Result{Code: code, Valid: true, Discount: clamp(discount.IntPart(), 0, subtotal)}
}

func clamp(v, lo, hi int64) int64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
