package addresses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository persists the customer address book.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns the default address first, then newest first.
func (r *Repository) List(ctx context.Context, customerID string) ([]models.CustomerAddress, error) {
	var rows []models.CustomerAddress
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("is_default DESC").
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *Repository) Count(ctx context.Context, customerID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&models.CustomerAddress{}).
		Where("customer_id = ?", customerID).
		Count(&n).Error
	return n, err
}

func (r *Repository) Create(ctx context.Context, row *models.CustomerAddress) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// Update overwrites the editable columns and reports whether a row matched.
func (r *Repository) Update(ctx context.Context, row *models.CustomerAddress) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.CustomerAddress{}).
		Where("id = ? AND customer_id = ?", row.ID, row.CustomerID).
		Updates(map[string]any{
			"name":       row.Name,
			"phone":      row.Phone,
			"email":      row.Email,
			"street":     row.Street,
			"city":       row.City,
			"state":      row.State,
			"zip":        row.Zip,
			"country":    row.Country,
			"updated_at": row.UpdatedAt,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) Find(ctx context.Context, customerID string, id uuid.UUID) (*models.CustomerAddress, error) {
	var row models.CustomerAddress
	err := r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", id, customerID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Delete(ctx context.Context, customerID string, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", id, customerID).
		Delete(&models.CustomerAddress{})
	return res.RowsAffected > 0, res.Error
}
