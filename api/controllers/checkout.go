package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

// Address fields are checked by the checkout service after contact defaults
// are applied, so the decoder skips them.
type checkoutRequest struct {
	Address        types.Address       `json:"address" validate:"-"`
	PaymentMethod  enums.PaymentMethod `json:"paymentMethod" validate:"required,oneof=online cod"`
	PaymentID      string              `json:"paymentId,omitempty"`
	GatewayOrderID string              `json:"gatewayOrderId,omitempty"`
	BuyNow         bool                `json:"buyNow"`
	SaveAddress    bool                `json:"saveAddress"`
}

// Checkout places the customer's cart (or buy-now item) as one parent order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		if strings.TrimSpace(identity.CustomerID) == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer context missing"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		address := payload.Address
		if strings.TrimSpace(address.Email) == "" {
			address.Email = identity.Email
		}
		if strings.TrimSpace(address.Name) == "" {
			address.Name = identity.Name
		}

		result, err := svc.PlaceOrder(r.Context(), identity.CustomerID, checkoutsvc.PlaceOrderInput{
			Address:        address,
			PaymentMethod:  payload.PaymentMethod,
			PaymentID:      strings.TrimSpace(payload.PaymentID),
			GatewayOrderID: strings.TrimSpace(payload.GatewayOrderID),
			BuyNow:         payload.BuyNow,
			SaveAddress:    payload.SaveAddress,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
