package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// ListProducts returns a page of active products matching the query filters.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := parseProductFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListProducts(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func parseProductFilter(r *http.Request) (catalog.ProductFilter, error) {
	query := r.URL.Query()
	discount, err := validators.ParseQueryInt(r, "discount", 0, 0, 100)
	if err != nil {
		return catalog.ProductFilter{}, err
	}
	ship, err := validators.ParseQueryBool(r, "ship")
	if err != nil {
		return catalog.ProductFilter{}, err
	}
	return catalog.ProductFilter{
		CategoryID:   strings.TrimSpace(query.Get("categoryId")),
		Gender:       strings.TrimSpace(query.Get("gender")),
		VendorID:     strings.TrimSpace(query.Get("vendorId")),
		MinDiscount:  discount,
		FreeShipping: ship,
	}, nil
}

// ProductDetail returns one product with its category, brand, vendor and tax.
func ProductDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := pathParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.GetProductDetail(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func CategoryDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return lookup(logg, func(r *http.Request, id string) (any, error) {
		return svc.GetCategory(r.Context(), id)
	})
}

func BrandDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return lookup(logg, func(r *http.Request, id string) (any, error) {
		return svc.GetBrand(r.Context(), id)
	})
}

func VendorDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return lookup(logg, func(r *http.Request, id string) (any, error) {
		return svc.GetVendor(r.Context(), id)
	})
}

func TaxDetail(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return lookup(logg, func(r *http.Request, id string) (any, error) {
		return svc.GetTax(r.Context(), id)
	})
}

// lookup serves the single-record routes keyed by {id}.
func lookup(logg *logger.Logger, fetch func(r *http.Request, id string) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		record, err := fetch(r, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

func pathParam(r *http.Request, name string) (string, error) {
	value := strings.TrimSpace(chi.URLParam(r, name))
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, name+" is required").WithDetails(map[string]any{"field": name})
	}
	return value, nil
}
