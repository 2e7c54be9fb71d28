package wishlist

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type productReader interface {
	GetProduct(ctx context.Context, id string) (models.Product, error)
}

// ServiceParams groups dependencies for the wishlist service.
type ServiceParams struct {
	Repo     *Repository
	Products productReader
}

// Service exposes business rules for wishlist management.
type Service interface {
	List(ctx context.Context, customerID string, params pagination.Params) (Page, error)
	Add(ctx context.Context, customerID, productID string) error
	Remove(ctx context.Context, customerID, productID string) error
}

type service struct {
	repo     *Repository
	products productReader
}

// NewService builds a wishlist service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("wishlist repo is required")
	}
	if params.Products == nil {
		return nil, errors.New("product reader is required")
	}
	return &service{repo: params.Repo, products: params.Products}, nil
}

func (s *service) List(ctx context.Context, customerID string, params pagination.Params) (Page, error) {
	page, err := s.repo.ListItems(ctx, customerID, params)
	if err != nil {
		if _, cerr := pagination.ParseCursor(params.Cursor); cerr != nil {
			return Page{}, pkgerrors.Wrap(pkgerrors.CodeValidation, cerr, "invalid cursor")
		}
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	return page, nil
}

// Add ensures the product exists and likes it. Adding twice is a no-op.
func (s *service) Add(ctx context.Context, customerID, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if _, err := s.products.GetProduct(ctx, productID); err != nil {
		return err
	}
	if err := s.repo.AddItem(ctx, customerID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}
	return nil
}

// Remove drops the wishlist entry regardless of prior state.
func (s *service) Remove(ctx context.Context, customerID, productID string) error {
	if err := s.repo.RemoveItem(ctx, customerID, strings.TrimSpace(productID)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	return nil
}
