package payments

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/square"
)

type stubGateway struct {
	payment *square.Payment
	err     error
	calls   int
}

func (s *stubGateway) GetPayment(ctx context.Context, paymentID string) (*square.Payment, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.payment, nil
}

func newTestVerifier(t *testing.T, gw Gateway) Verifier {
	t.Helper()
	v, err := NewVerifier(gw, Money{Currency: "inr", MinorPerUnit: 100}, BreakerSettings{TripAfter: 2, Timeout: time.Hour}, logger.Nop())
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	return v
}

func TestVerifyCompletedPayment(t *testing.T) {
	gw := &stubGateway{payment: &square.Payment{ID: "pay-1", Status: "COMPLETED", OrderID: "gw-1", Amount: 110000, Currency: "INR"}}
	v := newTestVerifier(t, gw)

	got, err := v.Verify(context.Background(), "pay-1", 1100)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.PaymentID != "pay-1" || got.OrderID != "gw-1" || got.Status != StatusCompleted || got.Amount != 110000 {
		t.Fatalf("unexpected verification %+v", got)
	}
}

func TestVerifyRejections(t *testing.T) {
	cases := []struct {
		name    string
		payment *square.Payment
		amount  int64
	}{
		{name: "pending", payment: &square.Payment{ID: "p", Status: "PENDING", Amount: 50000, Currency: "INR"}, amount: 500},
		{name: "failed", payment: &square.Payment{ID: "p", Status: "FAILED", Amount: 50000, Currency: "INR"}, amount: 500},
		{name: "short amount", payment: &square.Payment{ID: "p", Status: "APPROVED", Amount: 49999, Currency: "INR"}, amount: 500},
		{name: "minor units read as whole units", payment: &square.Payment{ID: "p", Status: "COMPLETED", Amount: 1280, Currency: "INR"}, amount: 1280},
		{name: "other currency", payment: &square.Payment{ID: "p", Status: "COMPLETED", Amount: 128000, Currency: "USD"}, amount: 1280},
		{name: "missing currency", payment: &square.Payment{ID: "p", Status: "COMPLETED", Amount: 128000}, amount: 1280},
		{name: "total overflows minor units", payment: &square.Payment{ID: "p", Status: "COMPLETED", Amount: math.MaxInt64, Currency: "INR"}, amount: math.MaxInt64 / 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := newTestVerifier(t, &stubGateway{payment: tc.payment})
			_, err := v.Verify(context.Background(), "p", tc.amount)
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestVerifyRequiresPaymentID(t *testing.T) {
	gw := &stubGateway{}
	v := newTestVerifier(t, gw)
	if _, err := v.Verify(context.Background(), " ", 100); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if gw.calls != 0 {
		t.Fatalf("gateway should not be called, got %d calls", gw.calls)
	}
}

func TestBreakerOpensOnOutage(t *testing.T) {
	gw := &stubGateway{err: errors.New("connection refused")}
	v := newTestVerifier(t, gw)

	for i := 0; i < 2; i++ {
		if _, err := v.Lookup(context.Background(), "pay-1"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
			t.Fatalf("attempt %d: expected dependency error, got %v", i, err)
		}
	}
	_, err := v.Lookup(context.Background(), "pay-1")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error from open breaker, got %v", err)
	}
	if gw.calls != 2 {
		t.Fatalf("open breaker should short-circuit, gateway calls=%d", gw.calls)
	}
}

func TestGatewayRejectionsDoNotTrip(t *testing.T) {
	gw := &stubGateway{err: pkgerrors.New(pkgerrors.CodeNotFound, "square payment not found")}
	v := newTestVerifier(t, gw)

	for i := 0; i < 4; i++ {
		if _, err := v.Lookup(context.Background(), "missing"); !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if gw.calls != 4 {
		t.Fatalf("expected every call to reach gateway, got %d", gw.calls)
	}
}

func TestNewVerifierRequiresGateway(t *testing.T) {
	if _, err := NewVerifier(nil, Money{}, BreakerSettings{}, nil); err == nil {
		t.Fatal("expected error")
	}
	if _, err := NewVerifier(&stubGateway{}, Money{MinorPerUnit: -1}, BreakerSettings{}, nil); err == nil {
		t.Fatal("expected error for negative minor units")
	}
}

func TestLookupNormalizesPayment(t *testing.T) {
	gw := &stubGateway{payment: &square.Payment{ID: "pay-9", Status: "pending", Amount: 700, Currency: "inr"}}
	v := newTestVerifier(t, gw)

	got, err := v.Lookup(context.Background(), " pay-9 ")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Status != StatusPending || got.Currency != "INR" || got.Amount != 700 {
		t.Fatalf("unexpected lookup %+v", got)
	}
}

func TestCoversComparesMinorUnits(t *testing.T) {
	v := newTestVerifier(t, &stubGateway{})
	paid := Verification{PaymentID: "pay-1", Amount: 128000, Currency: "INR"}

	if err := v.Covers(paid, 1280); err != nil {
		t.Fatalf("exact payment should cover total: %v", err)
	}
	if err := v.Covers(paid, 1281); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for short payment, got %v", err)
	}
	if err := v.Covers(paid, -1); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for negative total, got %v", err)
	}
}
