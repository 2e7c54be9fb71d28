package wishlist

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type stubProducts map[string]models.Product

func (s stubProducts) GetProduct(ctx context.Context, id string) (models.Product, error) {
	p, ok := s[id]
	if !ok {
		return models.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return p, nil
}

func setupWishlistTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:wishlist_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	for _, ddl := range []string{
		`CREATE TABLE wishlist_items (customer_id TEXT NOT NULL, product_id TEXT NOT NULL, created_at DATETIME, PRIMARY KEY (customer_id, product_id));`,
		`CREATE TABLE products (id TEXT PRIMARY KEY, name TEXT NOT NULL, slug TEXT, price INTEGER NOT NULL, sale_price INTEGER, discount_percent INTEGER NOT NULL DEFAULT 0, free_shipping BOOLEAN NOT NULL DEFAULT false, category_id TEXT, vendor_id TEXT, stock INTEGER NOT NULL DEFAULT 0, created_at DATETIME);`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func TestWishlistAddIsIdempotent(t *testing.T) {
	db := setupWishlistTestDB(t)
	require.NoError(t, db.Exec(`INSERT INTO products (id, name, price, stock) VALUES ('p1', 'Runner', 1200, 2), ('p2', 'Sandal', 800, 0)`).Error)
	svc, err := NewService(ServiceParams{
		Repo:     NewRepository(db),
		Products: stubProducts{"p1": {ID: "p1"}, "p2": {ID: "p2"}},
	})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "user-1", "p1"))
	require.NoError(t, svc.Add(ctx, "user-1", "p1"))
	require.NoError(t, db.Exec(`INSERT INTO wishlist_items (customer_id, product_id, created_at) VALUES ('user-1', 'p2', ?)`, time.Now().Add(time.Hour).UTC()).Error)

	page, err := svc.List(ctx, "user-1", pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "p2", page.Items[0].Product.ID)
	assert.False(t, page.Items[0].Product.InStock)
	assert.Equal(t, "Runner", page.Items[1].Product.Name)

	require.NoError(t, svc.Remove(ctx, "user-1", "p1"))
	require.NoError(t, svc.Remove(ctx, "user-1", "p1"))
	page, err = svc.List(ctx, "user-1", pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestWishlistRejectsUnknownProduct(t *testing.T) {
	svc, err := NewService(ServiceParams{Repo: NewRepository(setupWishlistTestDB(t)), Products: stubProducts{}})
	require.NoError(t, err)

	err = svc.Add(context.Background(), "user-1", "ghost")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = svc.Add(context.Background(), "user-1", " ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
