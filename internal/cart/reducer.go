package cart

import (
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/pricing"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// ActionType enumerates the cart mutations.
type ActionType string

const (
	ActionAddItem        ActionType = "add_item"
	ActionUpdateQuantity ActionType = "update_quantity"
	ActionUpdateVariant  ActionType = "update_variant"
	ActionRemoveItem     ActionType = "remove_item"
	ActionApplyCoupon    ActionType = "apply_coupon"
	ActionClearCoupon    ActionType = "clear_coupon"
	ActionClear          ActionType = "clear"
)

// State is the whole cart of one customer.
type State struct {
	Items      []Item    `json:"items"`
	CouponCode string    `json:"couponCode,omitempty"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Action is a single reducer input. Which fields matter depends on Type.
type Action struct {
	Type       ActionType `json:"type" validate:"required"`
	Item       *Item      `json:"item,omitempty"`
	Line       LineRef    `json:"line"`
	Quantity   int        `json:"quantity,omitempty" validate:"max=999"`
	Size       *string    `json:"size,omitempty"`
	Color      *string    `json:"color,omitempty"`
	CouponCode string     `json:"couponCode,omitempty"`
}

// Reduce returns the next state. The input state is never modified. A state
// whose line amounts would not fit the order totals is rejected.
func Reduce(state State, action Action) (State, error) {
	next, err := reduce(state, action)
	if err != nil {
		return state, err
	}
	if err := pricing.CheckLines(Lines(next.Items)); err != nil {
		return state, err
	}
	return next, nil
}

func reduce(state State, action Action) (State, error) {
	next := State{
		Items:      append([]Item(nil), state.Items...),
		CouponCode: state.CouponCode,
		UpdatedAt:  state.UpdatedAt,
	}

	switch action.Type {
	case ActionAddItem:
		if action.Item == nil {
			return state, pkgerrors.New(pkgerrors.CodeValidation, "item is required")
		}
		item := *action.Item
		item.ProductID = strings.TrimSpace(item.ProductID)
		if item.ProductID == "" {
			return state, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
		}
		if item.Quantity <= 0 {
			return state, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
		}
		if item.Quantity > MaxQuantity {
			return state, quantityTooLarge()
		}
		if item.Price < 0 || (item.SalePrice != nil && *item.SalePrice < 0) {
			return state, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		if idx := find(next.Items, item.Ref()); idx >= 0 {
			if next.Items[idx].Quantity > MaxQuantity-item.Quantity {
				return state, quantityTooLarge()
			}
			next.Items[idx].Quantity += item.Quantity
			next.Items[idx].AddedAt = item.AddedAt
			return next, nil
		}
		next.Items = append(next.Items, item)

	case ActionUpdateQuantity:
		idx := find(next.Items, action.Line)
		if idx < 0 {
			return state, lineNotFound(action.Line)
		}
		if action.Quantity <= 0 {
			next.Items = removeAt(next.Items, idx)
			return next, nil
		}
		if action.Quantity > MaxQuantity {
			return state, quantityTooLarge()
		}
		next.Items[idx].Quantity = action.Quantity

	case ActionUpdateVariant:
		idx := find(next.Items, action.Line)
		if idx < 0 {
			return state, lineNotFound(action.Line)
		}
		if action.Size == nil && action.Color == nil {
			return state, pkgerrors.New(pkgerrors.CodeValidation, "size or color is required")
		}
		updated := next.Items[idx]
		if action.Size != nil {
			updated.Size = strings.TrimSpace(*action.Size)
		}
		if action.Color != nil {
			updated.Color = strings.TrimSpace(*action.Color)
		}
		if other := find(next.Items, updated.Ref()); other >= 0 && other != idx {
			if next.Items[other].Quantity > MaxQuantity-updated.Quantity {
				return state, quantityTooLarge()
			}
			next.Items[other].Quantity += updated.Quantity
			next.Items = removeAt(next.Items, idx)
			return next, nil
		}
		next.Items[idx] = updated

	case ActionRemoveItem:
		idx := find(next.Items, action.Line)
		if idx < 0 {
			return state, lineNotFound(action.Line)
		}
		next.Items = removeAt(next.Items, idx)

	case ActionApplyCoupon:
		code := strings.TrimSpace(action.CouponCode)
		if code == "" {
			return state, pkgerrors.New(pkgerrors.CodeValidation, "couponCode is required")
		}
		next.CouponCode = code

	case ActionClearCoupon:
		next.CouponCode = ""

	case ActionClear:
		next.Items = nil
		next.CouponCode = ""

	default:
		return state, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown cart action %q", action.Type)
	}
	return next, nil
}

func find(items []Item, ref LineRef) int {
	for idx, it := range items {
		if ref.matches(it) {
			return idx
		}
	}
	return -1
}

func removeAt(items []Item, idx int) []Item {
	out := make([]Item, 0, len(items)-1)
	out = append(out, items[:idx]...)
	return append(out, items[idx+1:]...)
}

func quantityTooLarge() error {
	return pkgerrors.Newf(pkgerrors.CodeValidation, "quantity must not exceed %d", MaxQuantity).
		WithDetails(map[string]int{"maxQuantity": MaxQuantity})
}

func lineNotFound(ref LineRef) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found").WithDetails(ref)
}
