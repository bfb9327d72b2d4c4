package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout outcomes.
const (
	OutcomeSuccess           = "success"
	OutcomeValidation        = "validation"
	OutcomeEmptyCart         = "empty_cart"
	OutcomeInsufficientStock = "insufficient_stock"
	OutcomeConflict          = "conflict"
	OutcomeRetriesExhausted  = "retries_exhausted"
	OutcomeError             = "error"
)

// CheckoutMetrics tracks order placement.
type CheckoutMetrics struct {
	attempts      *prometheus.CounterVec
	retries       prometheus.Counter
	duration      prometheus.Histogram
	ordersCreated prometheus.Counter
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	m := &CheckoutMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "attempts_total",
			Help:      "Place-order calls by outcome.",
		}, []string{"outcome"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "tx_retries_total",
			Help:      "Checkout transactions retried after a transient store error.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "duration_seconds",
			Help:      "End-to-end place-order latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "orders_created_total",
			Help:      "Orders created by successful checkouts.",
		}),
	}
	reg.MustRegister(m.attempts, m.retries, m.duration, m.ordersCreated)
	return m
}

// Observe records one finished place-order call.
func (m *CheckoutMetrics) Observe(outcome string, elapsed time.Duration, orders int) {
	if m == nil || m.attempts == nil {
		return
	}
	m.attempts.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.duration.Observe(elapsed.Seconds())
	if orders > 0 {
		m.ordersCreated.Add(float64(orders))
	}
}

// IncRetry counts a transaction retry.
func (m *CheckoutMetrics) IncRetry() {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.Inc()
}
