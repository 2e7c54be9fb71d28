package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCheckoutMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)
	m.ObservePlaced("cod", 1280)
	m.ObservePlaced("cod", 720)
	m.IncFailure("VALIDATION_ERROR")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "checkout_orders_placed_total", "payment_method", "cod"); err != nil || got != 2 {
		t.Fatalf("expected placed=2, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "checkout_final_total_sum", "payment_method", "cod"); err != nil || got != 2000 {
		t.Fatalf("expected revenue=2000, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "checkout_failures_total", "code", "VALIDATION_ERROR"); err != nil || got != 1 {
		t.Fatalf("expected failure=1, got %f (%v)", got, err)
	}
}

func TestCheckoutMetricsNilSafe(t *testing.T) {
	var m *CheckoutMetrics
	m.ObservePlaced("online", 10)
	m.IncFailure("INTERNAL_ERROR")
	NewCheckoutMetrics(nil).ObservePlaced("online", 10)
}
