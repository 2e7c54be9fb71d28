package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	pkgdb "github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service covers the order history, customer cancel and status changes
// driven by back-office flows and reconciliation.
type Service interface {
	List(ctx context.Context, customerID string, params pagination.Params) (*OrderList, error)
	Get(ctx context.Context, customerID, orderID string) (*OrderDetail, error)
	Cancel(ctx context.Context, customerID, orderID string) (*OrderDetail, error)
	Transition(ctx context.Context, orderID string, to enums.OrderStatus) error
	AwaitingPayment(ctx context.Context, olderThan time.Duration, limit int) ([]PendingPayment, error)
	SettlePayment(ctx context.Context, orderID, paymentID string) (bool, error)
}

// PendingPayment is an online order whose gateway payment is not yet confirmed.
// ParentTotal sums every child of the checkout the payment has to cover.
type PendingPayment struct {
	OrderID       string
	ParentOrderID string
	CustomerID    string
	PaymentID     string
	Total         int64
	ParentTotal   int64
}

// ServiceParams wires the orders service.
type ServiceParams struct {
	Repo   Repository
	Tx     txRunner
	Outbox outboxPublisher
	Clock  func() time.Time
	Logger *logger.Logger
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
	clock  func() time.Time
	logg   *logger.Logger
}

// NewService builds the orders service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("orders repository required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, errors.New("outbox publisher required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:   params.Repo,
		tx:     params.Tx,
		outbox: params.Outbox,
		clock:  clock,
		logg:   params.Logger,
	}, nil
}

func (s *service) List(ctx context.Context, customerID string, params pagination.Params) (*OrderList, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListCustomerOrders(ctx, customerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	page := pagination.Trim(rows, params.Limit, func(row models.CustomerOrder) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.OrderID}
	})
	list := &OrderList{Items: make([]OrderSummary, 0, len(page.Items)), NextCursor: page.NextCursor}
	for _, row := range page.Items {
		snap, err := DecodeSnapshot(row.Snapshot, row.OrderStatus, row.PaymentStatus)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode order")
		}
		list.Items = append(list.Items, summaryFromSnapshot(snap))
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, customerID, orderID string) (*OrderDetail, error) {
	row, err := s.findCustomerOrder(ctx, s.repo, customerID, orderID)
	if err != nil {
		return nil, err
	}
	snap, err := DecodeSnapshot(row.Snapshot, row.OrderStatus, row.PaymentStatus)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode order")
	}
	return detailFromSnapshot(snap), nil
}

// Cancel is the customer-facing cancel. Only pending orders qualify.
func (s *service) Cancel(ctx context.Context, customerID, orderID string) (*OrderDetail, error) {
	var detail *OrderDetail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		row, err := s.findCustomerOrder(ctx, repo, customerID, orderID)
		if err != nil {
			return err
		}
		if !CustomerCanCancel(row.OrderStatus) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order can only be cancelled while pending").
				WithDetails(map[string]any{"orderStatus": row.OrderStatus})
		}

		now := s.clock().UTC()
		ok, err := repo.UpdateStatus(ctx, row.OrderID, row.OrderStatus, enums.OrderStatusCancelled, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed, reload and retry")
		}

		snap, err := DecodeSnapshot(row.Snapshot, enums.OrderStatusCancelled, row.PaymentStatus)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode order")
		}
		if err := s.outbox.Emit(ctx, tx, canceledEvent(snap, now, "customer", "cancelled by customer")); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "emit order_canceled")
		}
		detail = detailFromSnapshot(snap)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithOrderID(ctx, orderID), "order cancelled by customer")
	return detail, nil
}

// Transition applies a back-office status change against the state table.
func (s *service) Transition(ctx context.Context, orderID string, to enums.OrderStatus) error {
	if strings.TrimSpace(orderID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !to.IsValid() {
		return pkgerrors.Newf(pkgerrors.CodeValidation, "unknown order status %q", to)
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			if pkgdb.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.OrderStatus == to {
			return nil
		}
		if !CanTransition(order.OrderStatus, to) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "cannot move order from %s to %s", order.OrderStatus, to)
		}

		now := s.clock().UTC()
		ok, err := repo.UpdateStatus(ctx, order.OrderID, order.OrderStatus, to, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed, reload and retry")
		}

		if to == enums.OrderStatusCancelled {
			snap, err := DecodeSnapshot(order.Snapshot, to, order.PaymentStatus)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode order")
			}
			return s.outbox.Emit(ctx, tx, canceledEvent(snap, now, "backoffice", ""))
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStateChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.OrderID,
			Actor:         &outbox.ActorRef{Source: "backoffice"},
			OccurredAt:    now,
			Data: payloads.OrderStateChangedEvent{
				OrderID:       order.OrderID,
				ParentOrderID: order.ParentOrderID,
				CustomerID:    order.CustomerID,
				From:          order.OrderStatus,
				To:            to,
				ChangedAt:     now,
			},
		})
	})
}

func (s *service) AwaitingPayment(ctx context.Context, olderThan time.Duration, limit int) ([]PendingPayment, error) {
	cutoff := s.clock().UTC().Add(-olderThan)
	rows, err := s.repo.FindAwaitingPayment(ctx, cutoff, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders awaiting payment")
	}
	out := make([]PendingPayment, 0, len(rows))
	parentTotals := make(map[string]int64)
	for _, row := range rows {
		if row.PaymentID == nil {
			continue
		}
		parentTotal, seen := parentTotals[row.ParentOrderID]
		if !seen {
			parentTotal, err = s.repo.ParentTotal(ctx, row.ParentOrderID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum parent order total")
			}
			parentTotals[row.ParentOrderID] = parentTotal
		}
		out = append(out, PendingPayment{
			OrderID:       row.OrderID,
			ParentOrderID: row.ParentOrderID,
			CustomerID:    row.CustomerID,
			PaymentID:     *row.PaymentID,
			Total:         row.Total,
			ParentTotal:   parentTotal,
		})
	}
	return out, nil
}

// SettlePayment confirms a pending order whose gateway payment completed.
// It reports false when the order was already settled or moved on, or when
// paymentID is not the payment claimed by the order's checkout.
func (s *service) SettlePayment(ctx context.Context, orderID, paymentID string) (bool, error) {
	settled := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindOrder(ctx, orderID)
		if err != nil {
			if pkgdb.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.OrderStatus != enums.OrderStatusPending || order.PaymentStatus == enums.PaymentStatusPaid {
			return nil
		}
		if order.PaymentID == nil || *order.PaymentID != paymentID {
			s.logg.Warn(s.logg.WithField(ctx, "payment_id", paymentID), "orders.settle_payment_mismatch")
			return nil
		}
		owner, err := repo.PaymentClaim(ctx, paymentID)
		if err != nil && !pkgdb.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment claim")
		}
		if owner != order.ParentOrderID {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"payment_id":   paymentID,
				"claimed_by":   owner,
				"parent_order": order.ParentOrderID,
			}), "orders.settle_payment_unclaimed")
			return nil
		}

		now := s.clock().UTC()
		ok, err := repo.UpdateStatus(ctx, order.OrderID, enums.OrderStatusPending, enums.OrderStatusConfirmed, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm order")
		}
		if !ok {
			return nil
		}
		if err := repo.UpdatePaymentStatus(ctx, order.OrderID, enums.PaymentStatusPaid, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}

		settled = true
		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentSettled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.OrderID,
			Actor:         &outbox.ActorRef{Source: "payment-reconcile"},
			OccurredAt:    now,
			Data: payloads.PaymentSettledEvent{
				OrderID:       order.OrderID,
				ParentOrderID: order.ParentOrderID,
				CustomerID:    order.CustomerID,
				PaymentID:     paymentID,
				Amount:        order.Total,
				SettledAt:     now,
			},
		})
	})
	if err != nil {
		return false, err
	}
	return settled, nil
}

func (s *service) findCustomerOrder(ctx context.Context, repo Repository, customerID, orderID string) (*models.CustomerOrder, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if strings.TrimSpace(orderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	row, err := repo.FindCustomerOrder(ctx, customerID, orderID)
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return row, nil
}

func canceledEvent(snap Snapshot, at time.Time, source, reason string) outbox.DomainEvent {
	return outbox.DomainEvent{
		EventType:     enums.EventOrderCanceled,
		AggregateType: enums.AggregateOrder,
		AggregateID:   snap.OrderID,
		Actor:         &outbox.ActorRef{CustomerID: snap.CustomerID, Source: source},
		OccurredAt:    at,
		Data: payloads.OrderCanceledEvent{
			OrderID:       snap.OrderID,
			ParentOrderID: snap.ParentOrderID,
			CustomerID:    snap.CustomerID,
			VendorID:      snap.Item.VendorID,
			Total:         snap.Total,
			CanceledAt:    at,
			Reason:        reason,
		},
	}
}
