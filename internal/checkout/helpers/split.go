package helpers

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// SplitDiscount spreads total across lines in proportion to units. Each share
// is floored, the last line takes the remainder, then any share above its
// line's cap is moved to lines that still have room. The result always sums
// to total when total <= sum(caps).
func SplitDiscount(total int64, units []int, caps []int64) []int64 {
	shares := make([]int64, len(units))
	if total <= 0 || len(units) == 0 {
		return shares
	}

	var unitSum int64
	for _, u := range units {
		if u > 0 {
			unitSum += int64(u)
		}
	}
	if unitSum == 0 {
		return shares
	}

	d := decimal.NewFromInt(total)
	var assigned int64
	for i, u := range units {
		if i == len(units)-1 {
			shares[i] = total - assigned
			break
		}
		if u <= 0 {
			continue
		}
		share := d.Mul(decimal.NewFromInt(int64(u))).Div(decimal.NewFromInt(unitSum)).Floor().IntPart()
		shares[i] = share
		assigned += share
	}

	if len(caps) != len(shares) {
		return shares
	}
	var overflow int64
	for i := range shares {
		limit := caps[i]
		if limit < 0 {
			limit = 0
		}
		if shares[i] > limit {
			overflow += shares[i] - limit
			shares[i] = limit
		}
	}
	for i := range shares {
		if overflow == 0 {
			break
		}
		room := caps[i] - shares[i]
		if room <= 0 {
			continue
		}
		if room > overflow {
			room = overflow
		}
		shares[i] += room
		overflow -= room
	}
	return shares
}

// Commission is floor(subtotal * ratePercent / 100).
func Commission(subtotal int64, ratePercent decimal.Decimal) int64 {
	if subtotal <= 0 || !ratePercent.IsPositive() {
		return 0
	}
	return decimal.NewFromInt(subtotal).Mul(ratePercent).Div(hundred).Floor().IntPart()
}
