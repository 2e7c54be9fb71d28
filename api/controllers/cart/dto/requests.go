package cartdto

import "github.com/angelmondragon/storefront-backend/internal/shipping"

// QuoteRequest prices the cart, or only the buy-now item, for an optional destination.
type QuoteRequest struct {
	BuyNow  bool                 `json:"buyNow"`
	Address *QuoteAddressRequest `json:"address,omitempty"`
}

type QuoteAddressRequest struct {
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Country string `json:"country"`
}

// Destination converts the optional address for the shipping resolver.
func (q QuoteRequest) Destination() *shipping.Destination {
	if q.Address == nil {
		return nil
	}
	return &shipping.Destination{City: q.Address.City, State: q.Address.State, Country: q.Address.Country}
}

type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}
