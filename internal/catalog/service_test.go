package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

func newTestService(t *testing.T, repo reader) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:          repo,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
		Logger:        logger.Nop(),
	})
	require.NoError(t, err)
	return svc
}

type flakyReader struct {
	mu       sync.Mutex
	product  *models.Product
	calls    map[string]int
	failures map[string]int
}

func (f *flakyReader) hit(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.calls[name] <= f.failures[name]
}

func (f *flakyReader) FindProduct(ctx context.Context, id string) (*models.Product, error) {
	if f.product == nil || f.product.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.product, nil
}

func (f *flakyReader) ListProducts(ctx context.Context, filter ProductFilter, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	return nil, errors.New("not used")
}

func (f *flakyReader) FindCategory(ctx context.Context, id string) (*models.Category, error) {
	if f.hit(RelationCategory) {
		return nil, errors.New("timeout")
	}
	return &models.Category{ID: id, Name: "Shoes"}, nil
}

func (f *flakyReader) FindBrand(ctx context.Context, id string) (*models.Brand, error) {
	if f.hit(RelationBrand) {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Brand{ID: id, Name: "Brand"}, nil
}

func (f *flakyReader) FindVendor(ctx context.Context, id string) (*models.Vendor, error) {
	if f.hit(RelationVendor) {
		return nil, errors.New("timeout")
	}
	return &models.Vendor{ID: id, Name: "Acme"}, nil
}

func (f *flakyReader) FindTax(ctx context.Context, id string) (*models.Tax, error) {
	if f.hit(RelationTax) {
		return nil, errors.New("timeout")
	}
	return &models.Tax{ID: id, Name: "VAT"}, nil
}

func TestProductDetailRetriesAreBounded(t *testing.T) {
	repo := &flakyReader{
		product: &models.Product{
			ID:         "p1",
			Name:       "Runner",
			IsActive:   true,
			CategoryID: strPtr("c1"),
			BrandID:    strPtr("b1"),
			VendorID:   strPtr("v1"),
			TaxID:      strPtr("t1"),
		},
		calls: map[string]int{},
		failures: map[string]int{
			RelationCategory: 2,
			RelationBrand:    10,
			RelationVendor:   0,
			RelationTax:      3,
		},
	}
	svc := newTestService(t, repo)

	detail, err := svc.GetProductDetail(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 3, repo.calls[RelationCategory])
	assert.Equal(t, 3, repo.calls[RelationBrand])
	assert.Equal(t, 1, repo.calls[RelationVendor])
	assert.Equal(t, 3, repo.calls[RelationTax])

	assert.NotNil(t, detail.Category)
	assert.NotNil(t, detail.Vendor)
	assert.Nil(t, detail.Brand)
	assert.Nil(t, detail.Tax)
	assert.ElementsMatch(t, []string{RelationBrand, RelationTax}, detail.Unavailable)
}

func TestProductDetailMissingOrInactive(t *testing.T) {
	repo := &flakyReader{product: &models.Product{ID: "p1", IsActive: false}, calls: map[string]int{}}
	svc := newTestService(t, repo)

	_, err := svc.GetProductDetail(context.Background(), "p1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.GetProductDetail(context.Background(), "nope")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.GetProduct(context.Background(), " ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSingleLookups(t *testing.T) {
	db := setupCatalogTestDB(t)
	require.NoError(t, db.Create(&models.Brand{ID: "b1", Name: "Brand"}).Error)
	svc := newTestService(t, NewRepository(db))

	brand, err := svc.GetBrand(context.Background(), "b1")
	require.NoError(t, err)
	assert.Equal(t, "Brand", brand.Name)

	_, err = svc.GetVendor(context.Background(), "v-missing")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListProductsValidation(t *testing.T) {
	svc := newTestService(t, &flakyReader{calls: map[string]int{}})
	_, err := svc.ListProducts(context.Background(), ProductFilter{MinDiscount: 120}, pagination.Params{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.ListProducts(context.Background(), ProductFilter{}, pagination.Params{Cursor: "!!"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
