package cart

import (
	cartdto "github.com/angelmondragon/storefront-backend/api/controllers/cart/dto"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
)

func newCartState(state cartsvc.State) cartdto.CartState {
	items := state.Items
	if items == nil {
		items = []cartsvc.Item{}
	}
	units := 0
	for _, item := range items {
		units += item.Quantity
	}
	out := cartdto.CartState{
		Items:      items,
		CouponCode: state.CouponCode,
		ItemCount:  len(items),
		Units:      units,
	}
	if !state.UpdatedAt.IsZero() {
		updated := state.UpdatedAt
		out.UpdatedAt = &updated
	}
	return out
}
