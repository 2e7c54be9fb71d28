package wishlist

import (
	"time"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Item wraps the product summary included in a wishlist row.
type Item struct {
	Product catalog.ProductSummary `json:"product"`
	AddedAt time.Time              `json:"addedAt"`
}

// Page is a cursor-paginated wishlist view.
type Page = pagination.Page[Item]

type wishlistRecord struct {
	ProductID       string
	AddedAt         time.Time
	Name            string
	Slug            string
	Price           int64
	SalePrice       *int64
	DiscountPercent int
	FreeShipping    bool
	CategoryID      *string
	VendorID        *string
	Stock           int
	CreatedAt       time.Time
}

func (r wishlistRecord) toItem() Item {
	summary := catalog.ProductSummary{
		ID:              r.ProductID,
		Name:            r.Name,
		Slug:            r.Slug,
		Price:           r.Price,
		SalePrice:       r.SalePrice,
		DiscountPercent: r.DiscountPercent,
		FreeShipping:    r.FreeShipping,
		InStock:         r.Stock > 0,
		CreatedAt:       r.CreatedAt,
	}
	if r.CategoryID != nil {
		summary.CategoryID = *r.CategoryID
	}
	if r.VendorID != nil {
		summary.VendorID = *r.VendorID
	}
	return Item{Product: summary, AddedAt: r.AddedAt}
}
