package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the counters below.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// ShopMetrics records checkout, payment, refund and coupon activity.
// A nil *ShopMetrics is a valid no-op recorder.
type ShopMetrics struct {
	checkouts       *prometheus.CounterVec
	checkoutLatency *prometheus.HistogramVec
	verifications   *prometheus.CounterVec
	refunds         prometheus.Counter
	couponEvictions prometheus.Counter
	outboxPublished *prometheus.CounterVec
}

// NewShopMetrics registers the shop metrics on the provided registerer.
func NewShopMetrics(reg prometheus.Registerer) *ShopMetrics {
	if reg == nil {
		return &ShopMetrics{}
	}
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_checkouts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	checkoutLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shop_checkout_duration_seconds",
		Help:    "Checkout duration in seconds, including payment initiation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_payment_verifications_total",
		Help: "Payment verification callbacks by outcome.",
	}, []string{"outcome"})
	refunds := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shop_refunds_total",
		Help: "Orders refunded.",
	})
	couponEvictions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shop_coupon_evictions_total",
		Help: "Invalid coupons detached from carts while pricing.",
	})
	outboxPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_outbox_published_total",
		Help: "Outbox events handed to the broker by event type and outcome.",
	}, []string{"event", "outcome"})
	reg.MustRegister(checkouts, checkoutLatency, verifications, refunds, couponEvictions, outboxPublished)
	return &ShopMetrics{
		checkouts:       checkouts,
		checkoutLatency: checkoutLatency,
		verifications:   verifications,
		refunds:         refunds,
		couponEvictions: couponEvictions,
		outboxPublished: outboxPublished,
	}
}

// ObserveCheckout counts a checkout and records how long it took.
func (m *ShopMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if m == nil || m.checkouts == nil {
		return
	}
	outcome = normalizeLabel(outcome)
	m.checkouts.WithLabelValues(outcome).Inc()
	m.checkoutLatency.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *ShopMetrics) IncVerification(outcome string) {
	if m == nil || m.verifications == nil {
		return
	}
	m.verifications.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *ShopMetrics) IncRefund() {
	if m == nil || m.refunds == nil {
		return
	}
	m.refunds.Inc()
}

func (m *ShopMetrics) IncCouponEviction() {
	if m == nil || m.couponEvictions == nil {
		return
	}
	m.couponEvictions.Inc()
}

func (m *ShopMetrics) IncOutboxPublished(event, outcome string) {
	if m == nil || m.outboxPublished == nil {
		return
	}
	m.outboxPublished.WithLabelValues(normalizeLabel(event), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
