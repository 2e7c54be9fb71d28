package payments

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/square"
)

// Square payment statuses.
const (
	StatusApproved  = "APPROVED"
	StatusCompleted = "COMPLETED"
	StatusPending   = "PENDING"
	StatusCanceled  = "CANCELED"
	StatusFailed    = "FAILED"
)

const (
	breakerName        = "square-payments"
	breakerMaxRequests = 1
	breakerInterval    = time.Minute
	breakerTimeout     = 30 * time.Second
	breakerTripAfter   = 5

	defaultCurrency     = "INR"
	defaultMinorPerUnit = 100
)

// Gateway is the payment lookup the verifier needs.
type Gateway interface {
	GetPayment(ctx context.Context, paymentID string) (*square.Payment, error)
}

// Verification is the result of a successful verification.
type Verification struct {
	PaymentID string
	OrderID   string
	Status    string
	Amount    int64
	Currency  string
}

// Verifier confirms gateway payments server-side. Expected amounts are order
// totals in whole currency units; gateway amounts are minor units.
type Verifier interface {
	Verify(ctx context.Context, paymentID string, expectedAmount int64) (Verification, error)
	Lookup(ctx context.Context, paymentID string) (Verification, error)
	Covers(payment Verification, expectedAmount int64) error
}

// Money is the store currency and its minor units per whole unit.
type Money struct {
	Currency     string
	MinorPerUnit int64
}

type verifier struct {
	gateway Gateway
	money   Money
	breaker *gobreaker.CircuitBreaker[*square.Payment]
	logg    *logger.Logger
}

// BreakerSettings tunes the circuit breaker around the gateway.
type BreakerSettings struct {
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	TripAfter   uint32
}

// NewVerifier wraps the gateway in a circuit breaker.
func NewVerifier(gateway Gateway, money Money, settings BreakerSettings, logg *logger.Logger) (Verifier, error) {
	if gateway == nil {
		return nil, errors.New("payment gateway required")
	}
	money.Currency = strings.ToUpper(strings.TrimSpace(money.Currency))
	if money.Currency == "" {
		money.Currency = defaultCurrency
	}
	if money.MinorPerUnit == 0 {
		money.MinorPerUnit = defaultMinorPerUnit
	}
	if money.MinorPerUnit < 0 {
		return nil, errors.New("minor units per unit must be positive")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	if settings.MaxRequests == 0 {
		settings.MaxRequests = breakerMaxRequests
	}
	if settings.Interval <= 0 {
		settings.Interval = breakerInterval
	}
	if settings.Timeout <= 0 {
		settings.Timeout = breakerTimeout
	}
	if settings.TripAfter == 0 {
		settings.TripAfter = breakerTripAfter
	}
	tripAfter := settings.TripAfter

	cb := gobreaker.NewCircuitBreaker[*square.Payment](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= tripAfter
		},
		// lookups rejected by the gateway are not outages
		IsSuccessful: func(err error) bool {
			return err == nil || !isOutage(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			ctx := logg.WithFields(context.Background(), map[string]any{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			logg.Warn(ctx, "payment breaker state changed")
		},
	})

	return &verifier{gateway: gateway, money: money, breaker: cb, logg: logg}, nil
}

func (v *verifier) Verify(ctx context.Context, paymentID string, expectedAmount int64) (Verification, error) {
	payment, err := v.Lookup(ctx, paymentID)
	if err != nil {
		return Verification{}, err
	}
	if payment.Status != StatusCompleted && payment.Status != StatusApproved {
		return Verification{}, pkgerrors.New(pkgerrors.CodeValidation, "payment not completed").
			WithDetails(map[string]any{"paymentId": payment.PaymentID, "status": payment.Status})
	}
	if err := v.Covers(payment, expectedAmount); err != nil {
		return Verification{}, err
	}
	return payment, nil
}

// Lookup reads the payment from the gateway without judging it.
func (v *verifier) Lookup(ctx context.Context, paymentID string) (Verification, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return Verification{}, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	payment, err := v.fetch(ctx, paymentID)
	if err != nil {
		return Verification{}, err
	}
	id := payment.ID
	if id == "" {
		id = paymentID
	}
	return Verification{
		PaymentID: id,
		OrderID:   payment.OrderID,
		Status:    strings.ToUpper(payment.Status),
		Amount:    payment.Amount,
		Currency:  strings.ToUpper(payment.Currency),
	}, nil
}

// Covers checks the payment is in the store currency and pays at least
// expectedAmount whole units.
func (v *verifier) Covers(payment Verification, expectedAmount int64) error {
	if payment.Currency != v.money.Currency {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment currency does not match store currency").
			WithDetails(map[string]any{
				"paymentId": payment.PaymentID,
				"currency":  payment.Currency,
				"expected":  v.money.Currency,
			})
	}
	expectedMinor, ok := v.toMinor(expectedAmount)
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "order total out of range").
			WithDetails(map[string]any{"paymentId": payment.PaymentID, "expected": expectedAmount})
	}
	if payment.Amount < expectedMinor {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment amount does not cover order total").
			WithDetails(map[string]any{
				"paymentId": payment.PaymentID,
				"paid":      payment.Amount,
				"expected":  expectedMinor,
			})
	}
	return nil
}

func (v *verifier) toMinor(amount int64) (int64, bool) {
	if amount < 0 || amount > math.MaxInt64/v.money.MinorPerUnit {
		return 0, false
	}
	return amount * v.money.MinorPerUnit, true
}

func (v *verifier) fetch(ctx context.Context, paymentID string) (*square.Payment, error) {
	payment, err := v.breaker.Execute(func() (*square.Payment, error) {
		return v.gateway.GetPayment(ctx, paymentID)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment gateway unavailable")
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "payment lookup failed")
	}
	if payment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
	}
	return payment, nil
}

func isOutage(err error) bool {
	code := pkgerrors.CodeOf(err)
	return code == pkgerrors.CodeDependency || code == pkgerrors.CodeInternal || code == pkgerrors.CodeRateLimit
}
