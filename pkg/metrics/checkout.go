package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records payment intent and order placement outcomes.
type CheckoutMetrics struct {
	intents      *prometheus.CounterVec
	placements   *prometheus.CounterVec
	placementDur *prometheus.HistogramVec
	transitions  *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	intents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_intents_total",
		Help: "Payment intents created, labeled by outcome.",
	}, []string{"outcome"})
	placements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_placements_total",
		Help: "Order placement attempts, labeled by outcome.",
	}, []string{"outcome"})
	placementDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_placement_duration_seconds",
		Help:    "Duration of order placement transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions, labeled by target status.",
	}, []string{"to_status"})
	reg.MustRegister(intents, placements, placementDur, transitions)
	return &CheckoutMetrics{
		intents:      intents,
		placements:   placements,
		placementDur: placementDur,
		transitions:  transitions,
	}
}

// IncIntent counts a payment intent creation with the given outcome.
func (c *CheckoutMetrics) IncIntent(outcome string) {
	if c == nil || c.intents == nil {
		return
	}
	c.intents.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncPlacement counts an order placement attempt with the given outcome.
func (c *CheckoutMetrics) IncPlacement(outcome string) {
	if c == nil || c.placements == nil {
		return
	}
	c.placements.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObservePlacementDuration records how long the placement transaction took.
func (c *CheckoutMetrics) ObservePlacementDuration(outcome string, duration time.Duration) {
	if c == nil || c.placementDur == nil {
		return
	}
	c.placementDur.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncTransition counts a delivery lifecycle transition into toStatus.
func (c *CheckoutMetrics) IncTransition(toStatus string) {
	if c == nil || c.transitions == nil {
		return
	}
	c.transitions.WithLabelValues(normalizeLabel(toStatus)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
