package cartdto

import (
	"time"

	"github.com/angelmondragon/storefront-backend/internal/cart"
)

// CartState is the cart as the storefront renders it.
type CartState struct {
	Items      []cart.Item `json:"items"`
	CouponCode string      `json:"couponCode,omitempty"`
	ItemCount  int         `json:"itemCount"`
	Units      int         `json:"units"`
	UpdatedAt  *time.Time  `json:"updatedAt,omitempty"`
}
