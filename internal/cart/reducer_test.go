package cart

import (
	"math"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func strPtr(s string) *string { return &s }

func addItem(t *testing.T, state State, item Item) State {
	t.Helper()
	next, err := Reduce(state, Action{Type: ActionAddItem, Item: &item})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	return next
}

func TestReduceAddMergesIdenticalLines(t *testing.T) {
	t.Parallel()

	state := addItem(t, State{}, Item{ProductID: "p1", Price: 100, Quantity: 1, Size: "M", Color: "Red"})
	state = addItem(t, state, Item{ProductID: "p1", Price: 100, Quantity: 2, Size: "m", Color: "red"})
	state = addItem(t, state, Item{ProductID: "p1", Price: 100, Quantity: 1, Size: "L", Color: "Red"})

	if len(state.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(state.Items))
	}
	if state.Items[0].Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %d", state.Items[0].Quantity)
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	original := addItem(t, State{}, Item{ProductID: "p1", Price: 100, Quantity: 1})
	if _, err := Reduce(original, Action{Type: ActionUpdateQuantity, Line: LineRef{ProductID: "p1"}, Quantity: 9}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if original.Items[0].Quantity != 1 {
		t.Fatalf("input state was mutated: %+v", original.Items[0])
	}
}

func TestReduceZeroQuantityRemovesLine(t *testing.T) {
	t.Parallel()

	state := addItem(t, State{}, Item{ProductID: "p1", Price: 100, Quantity: 2})
	state = addItem(t, state, Item{ProductID: "p2", Price: 50, Quantity: 1})

	next, err := Reduce(state, Action{Type: ActionUpdateQuantity, Line: LineRef{ProductID: "p1"}, Quantity: 0})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(next.Items) != 1 || next.Items[0].ProductID != "p2" {
		t.Fatalf("expected only p2 left, got %+v", next.Items)
	}
}

func TestReduceUpdateVariantMergesIntoExisting(t *testing.T) {
	t.Parallel()

	state := addItem(t, State{}, Item{ProductID: "p1", Price: 100, Quantity: 1, Size: "M"})
	state = addItem(t, state, Item{ProductID: "p1", Price: 100, Quantity: 2, Size: "L"})

	next, err := Reduce(state, Action{Type: ActionUpdateVariant, Line: LineRef{ProductID: "p1", Size: "M"}, Size: strPtr("L")})
	if err != nil {
		t.Fatalf("update variant: %v", err)
	}
	if len(next.Items) != 1 || next.Items[0].Quantity != 3 || next.Items[0].Size != "L" {
		t.Fatalf("expected single merged L line with 3 units, got %+v", next.Items)
	}

	next, err = Reduce(next, Action{Type: ActionUpdateVariant, Line: LineRef{ProductID: "p1", Size: "L"}, Color: strPtr("Blue")})
	if err != nil {
		t.Fatalf("update color: %v", err)
	}
	if next.Items[0].Color != "Blue" || next.Items[0].Size != "L" {
		t.Fatalf("unexpected line %+v", next.Items[0])
	}
}

func TestReduceCouponAndClear(t *testing.T) {
	t.Parallel()

	state := addItem(t, State{}, Item{ProductID: "p1", Price: 100, Quantity: 1})
	state, err := Reduce(state, Action{Type: ActionApplyCoupon, CouponCode: " SAVE10 "})
	if err != nil || state.CouponCode != "SAVE10" {
		t.Fatalf("apply coupon: %+v %v", state, err)
	}
	state, _ = Reduce(state, Action{Type: ActionClearCoupon})
	if state.CouponCode != "" {
		t.Fatalf("expected coupon cleared")
	}
	state, _ = Reduce(state, Action{Type: ActionApplyCoupon, CouponCode: "X"})
	state, _ = Reduce(state, Action{Type: ActionClear})
	if len(state.Items) != 0 || state.CouponCode != "" {
		t.Fatalf("expected empty cart, got %+v", state)
	}
}

func TestReduceRejectsInvalidActions(t *testing.T) {
	t.Parallel()

	state := addItem(t, State{}, Item{ProductID: "p1", Price: 100, Quantity: 1})
	cases := []struct {
		name   string
		action Action
		code   pkgerrors.Code
	}{
		{"missing item", Action{Type: ActionAddItem}, pkgerrors.CodeValidation},
		{"zero quantity", Action{Type: ActionAddItem, Item: &Item{ProductID: "p2", Price: 10}}, pkgerrors.CodeValidation},
		{"negative price", Action{Type: ActionAddItem, Item: &Item{ProductID: "p2", Price: -1, Quantity: 1}}, pkgerrors.CodeValidation},
		{"unknown line", Action{Type: ActionRemoveItem, Line: LineRef{ProductID: "nope"}}, pkgerrors.CodeNotFound},
		{"variant without change", Action{Type: ActionUpdateVariant, Line: LineRef{ProductID: "p1"}}, pkgerrors.CodeValidation},
		{"blank coupon", Action{Type: ActionApplyCoupon}, pkgerrors.CodeValidation},
		{"unknown type", Action{Type: "explode"}, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		next, err := Reduce(state, tc.action)
		if !pkgerrors.IsCode(err, tc.code) {
			t.Fatalf("%s: expected %s, got %v", tc.name, tc.code, err)
		}
		if len(next.Items) != 1 {
			t.Fatalf("%s: state should be unchanged on error", tc.name)
		}
	}
}

func TestReduceCapsQuantity(t *testing.T) {
	t.Parallel()

	base := addItem(t, State{}, Item{ProductID: "p1", Price: 100, Quantity: 990, Size: "M"})
	base = addItem(t, base, Item{ProductID: "p1", Price: 100, Quantity: 20, Size: "L"})

	cases := []struct {
		name   string
		action Action
	}{
		{name: "add over cap", action: Action{Type: ActionAddItem, Item: &Item{ProductID: "p2", Price: 100000, Quantity: math.MaxInt / 1000}}},
		{name: "merge over cap", action: Action{Type: ActionAddItem, Item: &Item{ProductID: "p1", Price: 100, Quantity: 10, Size: "M"}}},
		{name: "merge near max int", action: Action{Type: ActionAddItem, Item: &Item{ProductID: "p1", Price: 100, Quantity: math.MaxInt, Size: "M"}}},
		{name: "update over cap", action: Action{Type: ActionUpdateQuantity, Line: LineRef{ProductID: "p1", Size: "M"}, Quantity: MaxQuantity + 1}},
		{name: "variant merge over cap", action: Action{Type: ActionUpdateVariant, Line: LineRef{ProductID: "p1", Size: "L"}, Size: strPtr("M")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := Reduce(base, tc.action)
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(next.Items) != 2 || next.Items[0].Quantity != 990 || next.Items[1].Quantity != 20 {
				t.Fatalf("state changed on rejected action: %+v", next.Items)
			}
		})
	}

	next, err := Reduce(base, Action{Type: ActionAddItem, Item: &Item{ProductID: "p1", Price: 100, Quantity: 9, Size: "M"}})
	if err != nil {
		t.Fatalf("merge up to cap: %v", err)
	}
	if next.Items[0].Quantity != MaxQuantity {
		t.Fatalf("expected quantity %d, got %d", MaxQuantity, next.Items[0].Quantity)
	}
}

func TestReduceRejectsUnrepresentableTotals(t *testing.T) {
	t.Parallel()

	_, err := Reduce(State{}, Action{Type: ActionAddItem, Item: &Item{ProductID: "p1", Price: math.MaxInt64 / 10, Quantity: 11}})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVisibleBuyNowPicksMostRecent(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []Item{
		{ProductID: "old", AddedAt: base},
		{ProductID: "newest", AddedAt: base.Add(2 * time.Minute)},
		{ProductID: "middle", AddedAt: base.Add(time.Minute)},
	}
	if got := Visible(items, true); len(got) != 1 || got[0].ProductID != "newest" {
		t.Fatalf("expected newest item, got %+v", got)
	}
	if got := Visible(items, false); len(got) != 3 {
		t.Fatalf("expected all items, got %d", len(got))
	}
}

func TestItemUnitPricePrefersSale(t *testing.T) {
	t.Parallel()

	sale := int64(80)
	item := Item{ProductID: "p", Price: 100, SalePrice: &sale, Quantity: 3}
	if item.UnitPrice() != 80 || item.Line().Subtotal() != 240 {
		t.Fatalf("unexpected pricing %d / %d", item.UnitPrice(), item.Line().Subtotal())
	}
}
