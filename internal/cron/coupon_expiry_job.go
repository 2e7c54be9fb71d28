package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/outbox/payloads"
)

// CouponExpiryJobName is also the lock name.
const CouponExpiryJobName = "coupon-expiry"

type couponExpirer interface {
	ExpireStale(ctx context.Context, tx *gorm.DB, now time.Time) ([]string, error)
}

// CouponExpiryJobParams configure the coupon expiry sweep.
type CouponExpiryJobParams struct {
	Logger  *logger.Logger
	DB      txRunner
	Coupons couponExpirer
	Outbox  outboxEmitter
	Clock   func() time.Time
}

// NewCouponExpiryJob builds the sweep that flags coupons past valid_to.
func NewCouponExpiryJob(params CouponExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &couponExpiryJob{
		logg:    params.Logger,
		db:      params.DB,
		coupons: params.Coupons,
		outbox:  params.Outbox,
		now:     clock,
	}, nil
}

type couponExpiryJob struct {
	logg    *logger.Logger
	db      txRunner
	coupons couponExpirer
	outbox  outboxEmitter
	now     func() time.Time
}

func (j *couponExpiryJob) Name() string { return CouponExpiryJobName }

func (j *couponExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	var expired []string
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		codes, err := j.coupons.ExpireStale(ctx, tx, now)
		if err != nil {
			return err
		}
		expired = codes
		if len(codes) == 0 {
			return nil
		}
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventCouponsExpired,
			AggregateType: enums.AggregateCoupon,
			AggregateID:   "sweep:" + now.Format(time.RFC3339),
			Actor:         &outbox.ActorRef{Source: CouponExpiryJobName},
			OccurredAt:    now,
			Data: payloads.CouponsExpiredEvent{
				Codes:     codes,
				ExpiredAt: now,
			},
		})
	})
	if err != nil {
		return fmt.Errorf("coupon expiry: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "expired", len(expired)), "coupon expiry sweep complete")
	return nil
}
