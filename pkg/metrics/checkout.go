package metrics

import "github.com/prometheus/client_golang/prometheus"

// CheckoutMetrics counts placed and failed checkouts.
type CheckoutMetrics struct {
	placed  *prometheus.CounterVec
	failed  *prometheus.CounterVec
	revenue *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on reg. A nil registerer
// yields a no-op collector.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_placed_total",
		Help: "Checkouts committed, by payment method.",
	}, []string{"payment_method"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_failures_total",
		Help: "Checkouts rejected or rolled back, by error code.",
	}, []string{"code"})
	revenue := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_final_total_sum",
		Help: "Sum of committed checkout final totals.",
	}, []string{"payment_method"})
	reg.MustRegister(placed, failed, revenue)
	return &CheckoutMetrics{placed: placed, failed: failed, revenue: revenue}
}

// ObservePlaced records one committed checkout.
func (c *CheckoutMetrics) ObservePlaced(paymentMethod string, finalTotal int64) {
	if c == nil || c.placed == nil {
		return
	}
	label := normalizeLabel(paymentMethod)
	c.placed.WithLabelValues(label).Inc()
	if finalTotal > 0 {
		c.revenue.WithLabelValues(label).Add(float64(finalTotal))
	}
}

// IncFailure records a failed checkout under its error code.
func (c *CheckoutMetrics) IncFailure(code string) {
	if c == nil || c.failed == nil {
		return
	}
	c.failed.WithLabelValues(normalizeLabel(code)).Inc()
}
