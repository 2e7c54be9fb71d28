package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	pkgdb "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

const (
	defaultRetryAttempts = 2
	defaultRetryDelay    = time.Second
)

type reader interface {
	FindProduct(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter, cursor *pagination.Cursor, limit int) ([]models.Product, error)
	FindCategory(ctx context.Context, id string) (*models.Category, error)
	FindBrand(ctx context.Context, id string) (*models.Brand, error)
	FindVendor(ctx context.Context, id string) (*models.Vendor, error)
	FindTax(ctx context.Context, id string) (*models.Tax, error)
}

// Service exposes the read-only catalog.
type Service interface {
	ListProducts(ctx context.Context, filter ProductFilter, params pagination.Params) (*ProductList, error)
	GetProductDetail(ctx context.Context, id string) (*ProductDetail, error)
	GetProduct(ctx context.Context, id string) (models.Product, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
	GetBrand(ctx context.Context, id string) (*Brand, error)
	GetVendor(ctx context.Context, id string) (*Vendor, error)
	GetTax(ctx context.Context, id string) (*Tax, error)
}

// ServiceParams wires the catalog service. RetryAttempts is the number of
// extra tries a related record gets on the product detail page.
type ServiceParams struct {
	Repo          reader
	RetryAttempts int
	RetryDelay    time.Duration
	Logger        *logger.Logger
}

type service struct {
	repo       reader
	retries    uint64
	retryDelay time.Duration
	logg       *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("catalog repository required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	attempts := params.RetryAttempts
	if attempts < 0 {
		attempts = defaultRetryAttempts
	}
	delay := params.RetryDelay
	if delay <= 0 {
		delay = defaultRetryDelay
	}
	return &service{
		repo:       params.Repo,
		retries:    uint64(attempts),
		retryDelay: delay,
		logg:       params.Logger,
	}, nil
}

func (s *service) ListProducts(ctx context.Context, filter ProductFilter, params pagination.Params) (*ProductList, error) {
	if filter.MinDiscount < 0 || filter.MinDiscount > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must be between 0 and 100")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListProducts(ctx, filter, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	summaries := make([]ProductSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, summaryFromModel(row))
	}
	page := pagination.Trim(summaries, params.Limit, func(p ProductSummary) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return &page, nil
}

// GetProductDetail loads the product, then its category, brand, vendor and
// tax concurrently. Related records are soft: each is retried and left nil
// when it still cannot be loaded.
func (s *service) GetProductDetail(ctx context.Context, id string) (*ProductDetail, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	detail := detailFromModel(product)

	var (
		category *Category
		brand    *Brand
		vendor   *Vendor
		tax      *Tax
	)
	g, gctx := errgroup.WithContext(ctx)
	if ref := deref(product.CategoryID); ref != "" {
		g.Go(func() error {
			category = fetchRelation(gctx, s, RelationCategory, ref, s.repo.FindCategory, categoryFromModel)
			return nil
		})
	}
	if ref := deref(product.BrandID); ref != "" {
		g.Go(func() error {
			brand = fetchRelation(gctx, s, RelationBrand, ref, s.repo.FindBrand, brandFromModel)
			return nil
		})
	}
	if ref := deref(product.VendorID); ref != "" {
		g.Go(func() error {
			vendor = fetchRelation(gctx, s, RelationVendor, ref, s.repo.FindVendor, vendorFromModel)
			return nil
		})
	}
	if ref := deref(product.TaxID); ref != "" {
		g.Go(func() error {
			tax = fetchRelation(gctx, s, RelationTax, ref, s.repo.FindTax, taxFromModel)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	detail.Category, detail.Brand, detail.Vendor, detail.Tax = category, brand, vendor, tax
	if category == nil && product.CategoryID != nil {
		detail.Unavailable = append(detail.Unavailable, RelationCategory)
	}
	if brand == nil && product.BrandID != nil {
		detail.Unavailable = append(detail.Unavailable, RelationBrand)
	}
	if vendor == nil && product.VendorID != nil {
		detail.Unavailable = append(detail.Unavailable, RelationVendor)
	}
	if tax == nil && product.TaxID != nil {
		detail.Unavailable = append(detail.Unavailable, RelationTax)
	}
	return detail, nil
}

func (s *service) GetProduct(ctx context.Context, id string) (models.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindProduct(ctx, id)
	if err != nil {
		return models.Product{}, lookupError(err, "product")
	}
	return *product, nil
}

func (s *service) GetCategory(ctx context.Context, id string) (*Category, error) {
	row, err := s.repo.FindCategory(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, lookupError(err, RelationCategory)
	}
	return categoryFromModel(*row), nil
}

func (s *service) GetBrand(ctx context.Context, id string) (*Brand, error) {
	row, err := s.repo.FindBrand(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, lookupError(err, RelationBrand)
	}
	return brandFromModel(*row), nil
}

func (s *service) GetVendor(ctx context.Context, id string) (*Vendor, error) {
	row, err := s.repo.FindVendor(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, lookupError(err, RelationVendor)
	}
	return vendorFromModel(*row), nil
}

func (s *service) GetTax(ctx context.Context, id string) (*Tax, error) {
	row, err := s.repo.FindTax(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, lookupError(err, RelationTax)
	}
	return taxFromModel(*row), nil
}

// fetchRelation makes at most 1+retries calls and swallows the final error.
func fetchRelation[M any, T any](ctx context.Context, s *service, name, id string, find func(context.Context, string) (*M, error), convert func(M) *T) *T {
	var found *M
	backoff := retry.WithMaxRetries(s.retries, retry.NewConstant(s.retryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		row, err := find(ctx, id)
		if err != nil {
			return retry.RetryableError(err)
		}
		found = row
		return nil
	})
	if err != nil || found == nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"relation": name,
			"id":       id,
		}), "catalog.relation_unavailable")
		return nil
	}
	return convert(*found)
}

func lookupError(err error, what string) error {
	if pkgdb.IsNotFound(err) {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "%s not found", what)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+what)
}
