package enums

import "strings"

// DiscountType is the effect a coupon has on the cart.
type DiscountType string

const (
	DiscountTypeFixed        DiscountType = "fixed"
	DiscountTypePercentage   DiscountType = "percentage"
	DiscountTypeFreeShipping DiscountType = "free_shipping"
)

// ParseDiscountType folds the spellings seen in stored coupons onto the canonical
// values. Unknown input is returned lower-cased so callers can reject it.
func ParseDiscountType(value string) DiscountType {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "percentage", "percent":
		return DiscountTypePercentage
	case "fixed":
		return DiscountTypeFixed
	case "free_shipping":
		return DiscountTypeFreeShipping
	}
	return DiscountType(normalized)
}

// IsValid reports whether the value is a supported discount type.
func (d DiscountType) IsValid() bool {
	switch d {
	case DiscountTypeFixed, DiscountTypePercentage, DiscountTypeFreeShipping:
		return true
	}
	return false
}
