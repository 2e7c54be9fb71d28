package shipping

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

// Repository loads the shipping rate rows.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LoadTable reads every rate into a RateTable.
func (r *Repository) LoadTable(ctx context.Context) (RateTable, error) {
	var rows []models.ShippingRate
	if err := r.db.WithContext(ctx).Order("country, state, city").Find(&rows).Error; err != nil {
		return nil, err
	}
	table := make(RateTable)
	for _, row := range rows {
		table.Add(row.Country, row.State, row.City, row.Price)
	}
	return table, nil
}
