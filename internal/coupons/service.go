package coupons

import (
	"context"
	"errors"
	"strings"
	"time"

	pkgdb "github.com/angelmondragon/storefront-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Service evaluates coupon codes against cart subtotals.
type Service interface {
	Apply(ctx context.Context, code string, subtotal int64) (Result, error)
}

type couponFinder interface {
	FindByCode(ctx context.Context, code string) (Record, error)
}

// ServiceParams wires the coupon service.
type ServiceParams struct {
	Repo   couponFinder
	Clock  func() time.Time
	Logger *logger.Logger
}

type service struct {
	repo  couponFinder
	clock func() time.Time
	logg  *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, errors.New("coupon repository required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{repo: params.Repo, clock: clock, logg: params.Logger}, nil
}

// Apply never reports an invalid coupon as an error; only lookup failures are.
func (s *service) Apply(ctx context.Context, code string, subtotal int64) (Result, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return reject("", ReasonNotFound), nil
	}

	rec, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return reject(code, ReasonNotFound), nil
		}
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup coupon")
	}

	coupon := Normalize(rec)
	result := Evaluate(subtotal, &coupon, s.clock())
	if !result.Valid {
		logCtx := s.logg.WithFields(ctx, map[string]any{"coupon_code": code, "reason": result.Reason})
		s.logg.Debug(logCtx, "coupon rejected")
	}
	return result, nil
}
