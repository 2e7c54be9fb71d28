package wishlist

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddItem inserts a wishlist entry and ignores duplicates.
func (r *Repository) AddItem(ctx context.Context, customerID, productID string) error {
	if customerID == "" || productID == "" {
		return gorm.ErrInvalidValue
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.WishlistItem{CustomerID: customerID, ProductID: productID}).
		Error
}

// RemoveItem deletes the customer-product like if it exists.
func (r *Repository) RemoveItem(ctx context.Context, customerID, productID string) error {
	return r.db.WithContext(ctx).
		Where("customer_id = ? AND product_id = ?", customerID, productID).
		Delete(&models.WishlistItem{}).
		Error
}

// ListItems returns a page of liked products, most recently liked first.
func (r *Repository) ListItems(ctx context.Context, customerID string, params pagination.Params) (Page, error) {
	cursor, err := pagination.ParseCursor(strings.TrimSpace(params.Cursor))
	if err != nil {
		return Page{}, err
	}

	selectColumns := []string{
		"wi.product_id AS product_id",
		"wi.created_at AS added_at",
		"p.name",
		"p.slug",
		"p.price",
		"p.sale_price",
		"p.discount_percent",
		"p.free_shipping",
		"p.category_id",
		"p.vendor_id",
		"p.stock",
		"p.created_at AS created_at",
	}

	query := r.db.WithContext(ctx).
		Table("wishlist_items wi").
		Select(strings.Join(selectColumns, ", ")).
		Joins("JOIN products p ON p.id = wi.product_id").
		Where("wi.customer_id = ?", customerID)
	if cursor != nil {
		query = query.Where("(wi.created_at < ?) OR (wi.created_at = ? AND wi.product_id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var records []wishlistRecord
	err = query.
		Order("wi.created_at DESC").
		Order("wi.product_id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Scan(&records).Error
	if err != nil {
		return Page{}, err
	}

	items := make([]Item, 0, len(records))
	for _, record := range records {
		items = append(items, record.toItem())
	}
	return pagination.Trim(items, params.Limit, func(it Item) pagination.Cursor {
		return pagination.Cursor{CreatedAt: it.AddedAt, ID: it.Product.ID}
	}), nil
}
