package cart

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/internal/shipping"
	pkgdb "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Service owns the per-customer cart and its pricing.
type Service interface {
	Get(ctx context.Context, userID string) (State, error)
	Dispatch(ctx context.Context, userID string, action Action) (State, error)
	Clear(ctx context.Context, userID string) error
	Remove(ctx context.Context, userID string, refs []LineRef) error
	ApplyCoupon(ctx context.Context, userID, code string) (coupons.Result, error)
	ClearCoupon(ctx context.Context, userID string) (State, error)
	Quote(ctx context.Context, userID string, input QuoteInput) (Quote, error)
}

// QuoteInput selects what gets priced.
type QuoteInput struct {
	BuyNow  bool                  `json:"buyNow"`
	Address *shipping.Destination `json:"address,omitempty"`
}

// Quote is the priced view of the cart.
type Quote struct {
	Items   []Item          `json:"items"`
	Summary pricing.Summary `json:"summary"`
	// Coupon is set whenever a code is attached, including rejected ones.
	Coupon *coupons.Result `json:"coupon,omitempty"`
}

type stateRepository interface {
	Load(ctx context.Context, userID string) (State, error)
	Save(ctx context.Context, userID string, state State) error
	Delete(ctx context.Context, userID string) error
}

type productReader interface {
	GetProduct(ctx context.Context, id string) (models.Product, error)
}

// ServiceParams wires the cart service. Products is optional; when set,
// added items are re-priced from the catalog.
type ServiceParams struct {
	Store    stateRepository
	Shipping shipping.Service
	Coupons  coupons.Service
	Products productReader
	Clock    func() time.Time
	Logger   *logger.Logger
}

type service struct {
	store    stateRepository
	shipping shipping.Service
	coupons  coupons.Service
	products productReader
	clock    func() time.Time
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, errors.New("cart store required")
	}
	if params.Shipping == nil {
		return nil, errors.New("shipping service required")
	}
	if params.Coupons == nil {
		return nil, errors.New("coupon service required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		store:    params.Store,
		shipping: params.Shipping,
		coupons:  params.Coupons,
		products: params.Products,
		clock:    clock,
		logg:     params.Logger,
	}, nil
}

func (s *service) Get(ctx context.Context, userID string) (State, error) {
	state, err := s.store.Load(ctx, userID)
	if err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return state, nil
}

func (s *service) Dispatch(ctx context.Context, userID string, action Action) (State, error) {
	state, err := s.Get(ctx, userID)
	if err != nil {
		return State{}, err
	}

	if action.Type == ActionAddItem && action.Item != nil {
		item, err := s.resolveItem(ctx, *action.Item)
		if err != nil {
			return State{}, err
		}
		action.Item = &item
	}

	next, err := Reduce(state, action)
	if err != nil {
		return State{}, err
	}
	return s.save(ctx, userID, next)
}

func (s *service) Clear(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

// Remove drops the given lines, ignoring any that are already gone.
func (s *service) Remove(ctx context.Context, userID string, refs []LineRef) error {
	state, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		next, err := Reduce(state, Action{Type: ActionRemoveItem, Line: ref})
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				continue
			}
			return err
		}
		state = next
	}
	if len(state.Items) == 0 {
		return s.Clear(ctx, userID)
	}
	_, err = s.save(ctx, userID, state)
	return err
}

// ApplyCoupon evaluates the code against the full cart subtotal. A valid code
// is kept on the cart; an invalid one clears any previously applied code.
func (s *service) ApplyCoupon(ctx context.Context, userID, code string) (coupons.Result, error) {
	state, err := s.Get(ctx, userID)
	if err != nil {
		return coupons.Result{}, err
	}
	result, err := s.coupons.Apply(ctx, code, pricing.Subtotal(Lines(state.Items)))
	if err != nil {
		return coupons.Result{}, err
	}

	action := Action{Type: ActionClearCoupon}
	if result.Valid {
		action = Action{Type: ActionApplyCoupon, CouponCode: strings.TrimSpace(code)}
	}
	next, err := Reduce(state, action)
	if err != nil {
		return coupons.Result{}, err
	}
	if _, err := s.save(ctx, userID, next); err != nil {
		return coupons.Result{}, err
	}
	return result, nil
}

func (s *service) ClearCoupon(ctx context.Context, userID string) (State, error) {
	return s.Dispatch(ctx, userID, Action{Type: ActionClearCoupon})
}

func (s *service) Quote(ctx context.Context, userID string, input QuoteInput) (Quote, error) {
	state, err := s.Get(ctx, userID)
	if err != nil {
		return Quote{}, err
	}
	return s.price(ctx, state, input)
}

func (s *service) price(ctx context.Context, state State, input QuoteInput) (Quote, error) {
	items := Visible(state.Items, input.BuyNow)
	lines := Lines(items)
	if err := pricing.CheckLines(lines); err != nil {
		return Quote{}, err
	}

	var dest shipping.Destination
	if input.Address != nil {
		dest = *input.Address
	}
	shipQuote, err := s.shipping.Quote(ctx, dest)
	if err != nil {
		return Quote{}, err
	}

	quote := Quote{Items: items}
	adj := pricing.Adjustments{}
	if state.CouponCode != "" && len(items) > 0 {
		result, err := s.coupons.Apply(ctx, state.CouponCode, pricing.Subtotal(lines))
		if err != nil {
			return Quote{}, err
		}
		quote.Coupon = &result
		if result.Valid {
			adj = pricing.Adjustments{
				CouponCode:     state.CouponCode,
				Discount:       result.Discount,
				IsFreeShipping: result.IsFreeShipping,
			}
		}
	}
	quote.Summary = pricing.Compute(lines, shipQuote.PerItemCost, adj)
	return quote, nil
}

func (s *service) resolveItem(ctx context.Context, item Item) (Item, error) {
	item.AddedAt = s.clock().UTC()
	if s.products == nil {
		return item, nil
	}
	product, err := s.products.GetProduct(ctx, strings.TrimSpace(item.ProductID))
	if err != nil {
		if pkgdb.IsNotFound(err) || pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return Item{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return Item{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return Item{}, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}
	item.Price = product.Price
	item.SalePrice = product.SalePrice
	if product.VendorID != nil {
		item.VendorID = *product.VendorID
	}
	if item.Name == "" {
		item.Name = product.Name
	}
	if item.Image == "" && len(product.Images) > 0 {
		item.Image = product.Images[0]
	}
	return item, nil
}

func (s *service) save(ctx context.Context, userID string, state State) (State, error) {
	state.UpdatedAt = s.clock().UTC()
	if err := s.store.Save(ctx, userID, state); err != nil {
		return State{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return state, nil
}
