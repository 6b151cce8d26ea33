package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records counters for the session and webhook paths.
type CheckoutMetrics struct {
	sessionsCreated prometheus.Counter
	sessionFailures prometheus.Counter
	webhookEvents   *prometheus.CounterVec
	ordersCreated   prometheus.Counter
	ordersSkipped   prometheus.Counter
}

// NewCheckoutMetrics registers the bridge metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	sessionsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_created_total",
		Help: "Hosted checkout sessions opened successfully.",
	})
	sessionFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_session_failures_total",
		Help: "Checkout session requests that failed.",
	})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Webhook deliveries by event type and outcome.",
	}, []string{"type", "outcome"})
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_synthesized_total",
		Help: "Orders created in the commerce platform from completed sessions.",
	})
	ordersSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_skipped_total",
		Help: "Completed-session deliveries skipped because the order already exists.",
	})
	reg.MustRegister(sessionsCreated, sessionFailures, webhookEvents, ordersCreated, ordersSkipped)
	return &CheckoutMetrics{
		sessionsCreated: sessionsCreated,
		sessionFailures: sessionFailures,
		webhookEvents:   webhookEvents,
		ordersCreated:   ordersCreated,
		ordersSkipped:   ordersSkipped,
	}
}

// IncSessionCreated counts a successful session build.
func (m *CheckoutMetrics) IncSessionCreated() {
	if m == nil || m.sessionsCreated == nil {
		return
	}
	m.sessionsCreated.Inc()
}

// IncSessionFailure counts a failed session build.
func (m *CheckoutMetrics) IncSessionFailure() {
	if m == nil || m.sessionFailures == nil {
		return
	}
	m.sessionFailures.Inc()
}

// ObserveWebhookEvent counts a webhook delivery by type and outcome.
func (m *CheckoutMetrics) ObserveWebhookEvent(eventType, outcome string) {
	if m == nil || m.webhookEvents == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

// IncOrderCreated counts an order synthesized in the commerce platform.
func (m *CheckoutMetrics) IncOrderCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

// IncOrderSkipped counts a duplicate delivery that was skipped.
func (m *CheckoutMetrics) IncOrderSkipped() {
	if m == nil || m.ordersSkipped == nil {
		return
	}
	m.ordersSkipped.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
