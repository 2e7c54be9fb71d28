package cart

import (
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/pricing"
)

// MaxQuantity caps the units on one cart line.
const MaxQuantity = 999

// Item is one cart line. A line is identified by product, size and color.
type Item struct {
	ProductID string    `json:"productId" validate:"required"`
	Name      string    `json:"name,omitempty"`
	Image     string    `json:"image,omitempty"`
	Price     int64     `json:"price" validate:"gte=0"`
	SalePrice *int64    `json:"salePrice,omitempty" validate:"omitempty,gte=0"`
	Quantity  int       `json:"quantity" validate:"gt=0,max=999"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
	VendorID  string    `json:"vendorId,omitempty"`
	AddedAt   time.Time `json:"addedAt"`
}

// UnitPrice is the sale price when present.
func (i Item) UnitPrice() int64 {
	if i.SalePrice != nil {
		return *i.SalePrice
	}
	return i.Price
}

// Line converts the item for pricing.
func (i Item) Line() pricing.Line {
	return pricing.Line{ProductID: i.ProductID, UnitPrice: i.UnitPrice(), Quantity: i.Quantity}
}

// LineRef identifies an existing line.
type LineRef struct {
	ProductID string `json:"productId"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

func (i Item) Ref() LineRef {
	return LineRef{ProductID: i.ProductID, Size: i.Size, Color: i.Color}
}

func (r LineRef) matches(i Item) bool {
	return r.ProductID == i.ProductID &&
		strings.EqualFold(strings.TrimSpace(r.Size), strings.TrimSpace(i.Size)) &&
		strings.EqualFold(strings.TrimSpace(r.Color), strings.TrimSpace(i.Color))
}

// Lines maps items to pricing lines.
func Lines(items []Item) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, it := range items {
		lines = append(lines, it.Line())
	}
	return lines
}

// Visible returns the items being priced: everything, or only the most
// recently added item in buy-now mode.
func Visible(items []Item, buyNow bool) []Item {
	if !buyNow || len(items) <= 1 {
		return items
	}
	latest := 0
	for idx := 1; idx < len(items); idx++ {
		if items[idx].AddedAt.After(items[latest].AddedAt) {
			latest = idx
		}
	}
	return []Item{items[latest]}
}
