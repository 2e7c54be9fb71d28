package cart

import (
	"net/http"

	cartdto "github.com/angelmondragon/storefront-backend/api/controllers/cart/dto"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// CartFetch returns the customer's cart.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCart(w, r, svc, logg)
		if !ok {
			return
		}
		state, err := svc.Get(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartState(state))
	}
}

// CartDispatch applies one reducer action and returns the next state.
func CartDispatch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCart(w, r, svc, logg)
		if !ok {
			return
		}
		var action cartsvc.Action
		if err := validators.DecodeJSONBody(r, &action); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state, err := svc.Dispatch(r.Context(), userID, action)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartState(state))
	}
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCart(w, r, svc, logg)
		if !ok {
			return
		}
		if err := svc.Clear(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// CartQuote prices the cart for the checkout page.
func CartQuote(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCart(w, r, svc, logg)
		if !ok {
			return
		}
		var payload cartdto.QuoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quote, err := svc.Quote(r.Context(), userID, cartsvc.QuoteInput{
			BuyNow:  payload.BuyNow,
			Address: payload.Destination(),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}

// CartApplyCoupon evaluates a code against the cart. A rejected code is a
// 200 with valid=false so the storefront can show the reason inline.
func CartApplyCoupon(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCart(w, r, svc, logg)
		if !ok {
			return
		}
		var payload cartdto.ApplyCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.ApplyCoupon(r.Context(), userID, payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CartClearCoupon(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireCart(w, r, svc, logg)
		if !ok {
			return
		}
		state, err := svc.ClearCoupon(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartState(state))
	}
}

func requireCart(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, logg *logger.Logger) (string, bool) {
	if svc == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
		return "", false
	}
	userID, err := middleware.RequireUserID(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return "", false
	}
	return userID, true
}
