package coupons

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// Coupon is the canonical, validated-shape coupon used by Evaluate.
type Coupon struct {
	ID            string
	Code          string
	Title         string
	Type          enums.DiscountType
	Value         decimal.Decimal
	MinSpend      int64
	Active        bool
	Expired       bool
	ValidFrom     *time.Time
	ValidTo       *time.Time
	UsageCount    int64
	UsageLimit    int64
	TotalQuantity int64
}

var firstNumber = regexp.MustCompile(`\d+(?:\.\d+)?`)

// Normalize maps a loose Record onto Coupon.
func Normalize(rec Record) Coupon {
	c := Coupon{
		ID:            rec.ID,
		Code:          strings.TrimSpace(rec.Code),
		Title:         strings.TrimSpace(rec.Title),
		Expired:       rec.IsExpired,
		MinSpend:      firstInt(rec.MinSpend, rec.MinOrderAmount),
		UsageCount:    firstInt(rec.UsageCount),
		UsageLimit:    firstInt(rec.UsageLimit),
		TotalQuantity: firstInt(rec.TotalQuantity),
	}

	c.Active = (rec.IsActive != nil && *rec.IsActive) || strings.EqualFold(strings.TrimSpace(rec.Status), "active")

	rawType := rec.Type
	if strings.TrimSpace(rawType) == "" {
		rawType = rec.DiscountType
	}
	c.Type = enums.ParseDiscountType(rawType)

	switch {
	case rec.DiscountValue != nil:
		c.Value = rec.DiscountValue.Decimal
	default:
		c.Value = numberIn(c.Title, c.Code)
	}

	if rec.ValidFrom != nil && !rec.ValidFrom.IsZero() {
		from := rec.ValidFrom.Time
		c.ValidFrom = &from
	}
	if rec.ValidTo != nil && !rec.ValidTo.IsZero() {
		to := rec.ValidTo.End()
		c.ValidTo = &to
	}
	return c
}

func firstInt(values ...*Number) int64 {
	for _, v := range values {
		if v != nil {
			return v.Floor().IntPart()
		}
	}
	return 0
}

func numberIn(candidates ...string) decimal.Decimal {
	for _, s := range candidates {
		if match := firstNumber.FindString(s); match != "" {
			if v, err := decimal.NewFromString(match); err == nil {
				return v
			}
		}
	}
	return decimal.Zero
}
