package catalog

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

// Repository reads the catalog tables.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindProduct loads one product, active or not.
func (r *Repository) FindProduct(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts returns active products newest first, one row past the limit.
func (r *Repository) ListProducts(ctx context.Context, filter ProductFilter, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if id := strings.TrimSpace(filter.CategoryID); id != "" {
		query = query.Where("category_id = ?", id)
	}
	if id := strings.TrimSpace(filter.VendorID); id != "" {
		query = query.Where("vendor_id = ?", id)
	}
	if gender := strings.TrimSpace(filter.Gender); gender != "" {
		query = query.Where("LOWER(gender) = ?", strings.ToLower(gender))
	}
	if filter.MinDiscount > 0 {
		query = query.Where("discount_percent >= ?", filter.MinDiscount)
	}
	if filter.FreeShipping {
		query = query.Where("free_shipping = ?", true)
	}
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Product
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(limit)).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) FindCategory(ctx context.Context, id string) (*models.Category, error) {
	var row models.Category
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) FindBrand(ctx context.Context, id string) (*models.Brand, error) {
	var row models.Brand
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) FindVendor(ctx context.Context, id string) (*models.Vendor, error) {
	var row models.Vendor
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) FindTax(ctx context.Context, id string) (*models.Tax, error) {
	var row models.Tax
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
