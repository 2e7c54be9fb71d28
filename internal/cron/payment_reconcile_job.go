package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	// PaymentReconcileJobName is also the lock name.
	PaymentReconcileJobName = "payment-reconcile"

	defaultReconcileMinAge    = time.Minute
	defaultReconcileBatchSize = 100
)

type pendingPaymentStore interface {
	AwaitingPayment(ctx context.Context, olderThan time.Duration, limit int) ([]orders.PendingPayment, error)
	SettlePayment(ctx context.Context, orderID, paymentID string) (bool, error)
}

type paymentLookup interface {
	Lookup(ctx context.Context, paymentID string) (payments.Verification, error)
	Covers(payment payments.Verification, expectedAmount int64) error
}

// PaymentReconcileJobParams configure the payment reconciliation job.
type PaymentReconcileJobParams struct {
	Logger    *logger.Logger
	Orders    pendingPaymentStore
	Payments  paymentLookup
	MinAge    time.Duration
	BatchSize int
}

// NewPaymentReconcileJob builds the job that confirms pending online orders
// whose gateway payment has completed and covers the checkout total.
func NewPaymentReconcileJob(params PaymentReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payment lookup required")
	}
	minAge := params.MinAge
	if minAge <= 0 {
		minAge = defaultReconcileMinAge
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultReconcileBatchSize
	}
	return &paymentReconcileJob{
		logg:     params.Logger,
		orders:   params.Orders,
		payments: params.Payments,
		minAge:   minAge,
		batch:    batch,
	}, nil
}

type paymentReconcileJob struct {
	logg     *logger.Logger
	orders   pendingPaymentStore
	payments paymentLookup
	minAge   time.Duration
	batch    int
}

func (j *paymentReconcileJob) Name() string { return PaymentReconcileJobName }

func (j *paymentReconcileJob) Run(ctx context.Context) error {
	pending, err := j.orders.AwaitingPayment(ctx, j.minAge, j.batch)
	if err != nil {
		return fmt.Errorf("list pending payments: %w", err)
	}

	// child orders of one checkout share a payment id
	lookups := make(map[string]*payments.Verification, len(pending))
	var (
		errs    error
		settled int
		skipped int
	)
	for _, order := range pending {
		orderCtx := j.logg.WithFields(ctx, map[string]any{
			"order_id":        order.OrderID,
			"parent_order_id": order.ParentOrderID,
			"payment_id":      order.PaymentID,
		})

		payment, seen := lookups[order.PaymentID]
		if !seen {
			found, err := j.payments.Lookup(orderCtx, order.PaymentID)
			if err != nil {
				if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
					j.logg.Warn(orderCtx, "payment not found at gateway")
					lookups[order.PaymentID] = nil
					skipped++
					continue
				}
				errs = multierr.Append(errs, fmt.Errorf("payment %s: %w", order.PaymentID, err))
				continue
			}
			payment = &found
			lookups[order.PaymentID] = payment
		}
		if payment == nil || payment.Status != payments.StatusCompleted {
			skipped++
			continue
		}
		if err := j.payments.Covers(*payment, order.ParentTotal); err != nil {
			j.logg.Warn(j.logg.WithFields(orderCtx, map[string]any{
				"paid":         payment.Amount,
				"currency":     payment.Currency,
				"parent_total": order.ParentTotal,
			}), "payment does not cover checkout total")
			skipped++
			continue
		}

		ok, err := j.orders.SettlePayment(orderCtx, order.OrderID, order.PaymentID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("settle order %s: %w", order.OrderID, err))
			continue
		}
		if ok {
			settled++
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"candidates": len(pending),
		"settled":    settled,
		"skipped":    skipped,
	}), "payment reconciliation complete")
	return errs
}
