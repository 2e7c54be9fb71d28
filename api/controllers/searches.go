package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/search"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type recordSearchRequest struct {
	Term string `json:"term" validate:"required"`
}

type recentSearchesResponse struct {
	Terms []string `json:"terms"`
}

func RecentSearches(svc search.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "search service unavailable"))
			return
		}
		customerID, err := middleware.RequireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		terms, err := svc.List(ctx, customerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, recentSearchesResponse{Terms: nonNilTerms(terms)})
	}
}

// RecordSearch pushes a term to the front of the recent list.
func RecordSearch(svc search.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "search service unavailable"))
			return
		}
		customerID, err := middleware.RequireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var req recordSearchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		terms, err := svc.Record(ctx, customerID, req.Term)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, recentSearchesResponse{Terms: nonNilTerms(terms)})
	}
}

func ClearSearches(svc search.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "search service unavailable"))
			return
		}
		customerID, err := middleware.RequireUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Clear(ctx, customerID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func nonNilTerms(terms []string) []string {
	if terms == nil {
		return []string{}
	}
	return terms
}
