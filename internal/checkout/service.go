package checkout

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/internal/addresses"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/checkout/helpers"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	"github.com/angelmondragon/storefront-backend/internal/pricing"
	"github.com/angelmondragon/storefront-backend/internal/shipping"
	pkgcheckout "github.com/angelmondragon/storefront-backend/pkg/checkout"
	pkgdb "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type couponUsage interface {
	IncrementUsage(ctx context.Context, tx *gorm.DB, code string) error
}

type vendorLookup interface {
	GetVendor(ctx context.Context, id string) (*catalog.Vendor, error)
}

type addressBook interface {
	Create(ctx context.Context, customerID string, addr types.Address) (*addresses.Address, error)
}

// Service places orders from the customer's cart.
type Service interface {
	PlaceOrder(ctx context.Context, customerID string, input PlaceOrderInput) (*PlaceOrderResult, error)
}

// PlaceOrderInput is the checkout form plus the payment widget's outcome.
type PlaceOrderInput struct {
	Address        types.Address       `json:"address"`
	PaymentMethod  enums.PaymentMethod `json:"paymentMethod"`
	PaymentID      string              `json:"paymentId,omitempty"`
	GatewayOrderID string              `json:"gatewayOrderId,omitempty"`
	BuyNow         bool                `json:"buyNow"`
	SaveAddress    bool                `json:"saveAddress"`
}

// PlaceOrderResult lists the child orders created under one parent id.
type PlaceOrderResult struct {
	ParentOrderID string            `json:"parentOrderId"`
	Orders        []orders.Snapshot `json:"orders"`
	Summary       pricing.Summary   `json:"summary"`
}

// ServiceParams wires the checkout service. Verifier, Vendors, Addresses and
// Metrics are optional.
type ServiceParams struct {
	Tx             txRunner
	Cart           cart.Service
	Orders         orders.Repository
	Coupons        couponUsage
	Outbox         outboxPublisher
	Verifier       payments.Verifier
	VerifyPayments bool
	Vendors        vendorLookup
	Addresses      addressBook
	Metrics        *metrics.CheckoutMetrics
	Random         io.Reader
	Clock          func() time.Time
	Logger         *logger.Logger
}

type service struct {
	tx             txRunner
	cart           cart.Service
	orders         orders.Repository
	coupons        couponUsage
	outbox         outboxPublisher
	verifier       payments.Verifier
	verifyPayments bool
	vendors        vendorLookup
	addresses      addressBook
	metrics        *metrics.CheckoutMetrics
	random         io.Reader
	clock          func() time.Time
	logg           *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, errors.New("tx runner required")
	}
	if params.Cart == nil {
		return nil, errors.New("cart service required")
	}
	if params.Orders == nil {
		return nil, errors.New("orders repository required")
	}
	if params.Coupons == nil {
		return nil, errors.New("coupon usage recorder required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox publisher required")
	}
	if params.VerifyPayments && params.Verifier == nil {
		return nil, errors.New("payment verifier required when verification is enabled")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		tx:             params.Tx,
		cart:           params.Cart,
		orders:         params.Orders,
		coupons:        params.Coupons,
		outbox:         params.Outbox,
		verifier:       params.Verifier,
		verifyPayments: params.VerifyPayments,
		vendors:        params.Vendors,
		addresses:      params.Addresses,
		metrics:        params.Metrics,
		random:         params.Random,
		clock:          clock,
		logg:           params.Logger,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, customerID string, input PlaceOrderInput) (*PlaceOrderResult, error) {
	result, err := s.placeOrder(ctx, customerID, input)
	if err != nil {
		s.metrics.IncFailure(string(pkgerrors.CodeOf(err)))
		return nil, err
	}
	s.metrics.ObservePlaced(string(input.PaymentMethod), result.Summary.FinalTotal)
	return result, nil
}

func (s *service) placeOrder(ctx context.Context, customerID string, input PlaceOrderInput) (*PlaceOrderResult, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer id required")
	}
	ctx = s.logg.WithUserID(ctx, customerID)

	address := input.Address.Trimmed()
	if err := pkgcheckout.ValidateAddress(address); err != nil {
		return nil, err
	}
	if !input.PaymentMethod.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid payment method %q", input.PaymentMethod)
	}
	paymentID := strings.TrimSpace(input.PaymentID)
	if input.PaymentMethod == enums.PaymentMethodOnline && paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required for online payments")
	}

	quote, err := s.cart.Quote(ctx, customerID, cart.QuoteInput{
		BuyNow: input.BuyNow,
		Address: &shipping.Destination{
			City:    address.City,
			State:   address.State,
			Country: address.Country,
		},
	})
	if err != nil {
		return nil, err
	}
	if len(quote.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if quote.Coupon != nil && !quote.Coupon.Valid {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is no longer valid").
			WithDetails(map[string]string{"couponCode": quote.Coupon.Reason})
	}

	payment := PaymentInfo{
		Method:    input.PaymentMethod,
		Status:    enums.PaymentStatusPending,
		PaymentID: paymentID,
	}
	gatewayOrderID := strings.TrimSpace(input.GatewayOrderID)
	if s.verifyPayments && input.PaymentMethod == enums.PaymentMethodOnline {
		verification, err := s.verifier.Verify(ctx, paymentID, quote.Summary.FinalTotal)
		if err != nil {
			return nil, err
		}
		if gatewayOrderID != "" && gatewayOrderID != verification.OrderID {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id does not match payment").
				WithDetails(map[string]string{"paymentId": paymentID})
		}
		payment.Status = enums.PaymentStatusPaid
		gatewayOrderID = verification.OrderID
	}

	now := s.clock().UTC()
	parentID, err := helpers.ParentOrderID(gatewayOrderID, now, s.random)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order id")
	}
	ctx = s.logg.WithOrderID(ctx, parentID)

	plan, err := Decompose(DecomposeInput{
		ParentOrderID:   parentID,
		CustomerID:      customerID,
		Items:           quote.Items,
		Address:         address,
		Payment:         payment,
		Adjustments:     adjustmentsFrom(quote.Summary),
		ShippingPerItem: quote.Summary.ShippingPerItem,
		Vendors:         s.lookupVendors(ctx, quote.Items),
		CreatedAt:       now,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decompose order")
	}

	if err := s.persist(ctx, plan, payment); err != nil {
		s.logg.Error(ctx, "checkout.persist_failed", err)
		if errors.Is(err, orders.ErrPaymentClaimed) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "payment already used").
				WithDetails(map[string]string{"paymentId": paymentID})
		}
		if pkgdb.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order already placed").
				WithDetails(map[string]string{"parentOrderId": parentID})
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "order could not be saved, contact support with your order id").
			WithDetails(map[string]string{"parentOrderId": parentID})
	}

	s.afterCommit(ctx, customerID, input, quote.Items, address)

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"orders":     len(plan.Orders),
		"finalTotal": plan.Summary.FinalTotal,
	}), "checkout.placed")

	return &PlaceOrderResult{
		ParentOrderID: plan.ParentOrderID,
		Orders:        plan.Orders,
		Summary:       plan.Summary,
	}, nil
}

func (s *service) persist(ctx context.Context, plan Plan, payment PaymentInfo) error {
	rows := make([]models.Order, 0, len(plan.Orders))
	mirrors := make([]models.CustomerOrder, 0, len(plan.Orders))
	for _, snap := range plan.Orders {
		order, mirror, err := snap.Rows()
		if err != nil {
			return err
		}
		rows = append(rows, order)
		mirrors = append(mirrors, mirror)
	}

	event := orderCreatedEvent(plan, payment)
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.orders.WithTx(tx)
		if payment.Method == enums.PaymentMethodOnline && payment.PaymentID != "" {
			if err := repo.ClaimPayment(ctx, payment.PaymentID, plan.ParentOrderID); err != nil {
				return err
			}
		}
		if err := repo.CreateOrders(ctx, rows, mirrors); err != nil {
			return err
		}
		if code := plan.Summary.CouponCode; code != "" {
			if err := s.coupons.IncrementUsage(ctx, tx, code); err != nil {
				return err
			}
		}
		return s.outbox.Emit(ctx, tx, event)
	})
}

// afterCommit runs the steps that must not fail a placed order.
func (s *service) afterCommit(ctx context.Context, customerID string, input PlaceOrderInput, items []cart.Item, address types.Address) {
	var err error
	if input.BuyNow {
		refs := make([]cart.LineRef, 0, len(items))
		for _, item := range items {
			refs = append(refs, item.Ref())
		}
		err = s.cart.Remove(ctx, customerID, refs)
	} else {
		err = s.cart.Clear(ctx, customerID)
	}
	if err != nil {
		s.logg.Error(ctx, "checkout.cart_clear_failed", err)
	}

	if input.SaveAddress && s.addresses != nil {
		if _, err := s.addresses.Create(ctx, customerID, address); err != nil {
			s.logg.Error(ctx, "checkout.address_save_failed", err)
		}
	}
}

// lookupVendors is best effort: a vendor that cannot be loaded is left off
// the order.
func (s *service) lookupVendors(ctx context.Context, items []cart.Item) map[string]Vendor {
	out := make(map[string]Vendor)
	if s.vendors == nil {
		return out
	}
	for _, item := range items {
		id := strings.TrimSpace(item.VendorID)
		if id == "" {
			continue
		}
		if _, seen := out[id]; seen {
			continue
		}
		vendor, err := s.vendors.GetVendor(ctx, id)
		if err != nil || vendor == nil {
			s.logg.Warn(s.logg.WithField(ctx, "vendorId", id), "checkout.vendor_lookup_failed")
			continue
		}
		out[id] = Vendor{
			ID:             vendor.ID,
			Name:           vendor.Name,
			Email:          vendor.Email,
			CommissionRate: vendor.CommissionRate,
		}
	}
	return out
}

func adjustmentsFrom(summary pricing.Summary) pricing.Adjustments {
	return pricing.Adjustments{
		CouponCode:     summary.CouponCode,
		Discount:       summary.Discount,
		IsFreeShipping: summary.IsFreeShipping,
	}
}

func orderCreatedEvent(plan Plan, payment PaymentInfo) outbox.DomainEvent {
	var customerID string
	lines := make([]payloads.OrderLine, 0, len(plan.Orders))
	for _, snap := range plan.Orders {
		customerID = snap.CustomerID
		var vendorID string
		if snap.Vendor != nil {
			vendorID = snap.Vendor.ID
		} else {
			vendorID = snap.Item.VendorID
		}
		lines = append(lines, payloads.OrderLine{
			OrderID:   snap.OrderID,
			ProductID: snap.Item.ProductID,
			VendorID:  vendorID,
			Quantity:  snap.Item.Quantity,
			Subtotal:  snap.Subtotal,
			Discount:  snap.Discount,
			Shipping:  snap.Shipping,
			Total:     snap.Total,
		})
	}
	var createdAt time.Time
	if len(plan.Orders) > 0 {
		createdAt = plan.Orders[0].CreatedAt
	}
	return outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   plan.ParentOrderID,
		Actor:         &outbox.ActorRef{CustomerID: customerID, Source: "checkout"},
		Data: payloads.OrderCreatedEvent{
			ParentOrderID:  plan.ParentOrderID,
			CustomerID:     customerID,
			Orders:         lines,
			CouponCode:     plan.Summary.CouponCode,
			IsFreeShipping: plan.Summary.IsFreeShipping,
			PaymentMethod:  payment.Method,
			PaymentStatus:  payment.Status,
			FinalTotal:     plan.Summary.FinalTotal,
			CreatedAt:      createdAt,
		},
		OccurredAt: createdAt,
	}
}
