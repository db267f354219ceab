package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records counters for the order pipeline and its async stages.
type PipelineMetrics struct {
	ordersCreated    *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	settlements      prometheus.Counter
	outboxPublished  prometheus.Counter
	outboxFailures   prometheus.Counter
	notifications    *prometheus.CounterVec
	consumerDuration *prometheus.HistogramVec
}

// NewPipelineMetrics registers the pipeline metrics on the provided registerer.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		return &PipelineMetrics{}
	}
	ordersCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders accepted at checkout.",
	}, []string{"delivery_method"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transitions by target status.",
	}, []string{"status"})
	settlements := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlements_total",
		Help: "Financial records created at delivery.",
	})
	outboxPublished := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_published_total",
		Help: "Outbox events published to Pub/Sub.",
	})
	outboxFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_publish_failures_total",
		Help: "Outbox publish attempts that failed.",
	})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_written_total",
		Help: "Notifications fanned out to recipients.",
	}, []string{"category"})
	consumerDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "consumer_duration_seconds",
		Help:    "Duration of consumer message handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"consumer"})
	reg.MustRegister(ordersCreated, transitions, settlements, outboxPublished, outboxFailures, notifications, consumerDuration)
	return &PipelineMetrics{
		ordersCreated:    ordersCreated,
		transitions:      transitions,
		settlements:      settlements,
		outboxPublished:  outboxPublished,
		outboxFailures:   outboxFailures,
		notifications:    notifications,
		consumerDuration: consumerDuration,
	}
}

// IncOrderCreated increments the created-orders counter for the delivery method.
func (m *PipelineMetrics) IncOrderCreated(deliveryMethod string) {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.WithLabelValues(normalizeLabel(deliveryMethod)).Inc()
}

// IncTransition increments the transition counter for the target status.
func (m *PipelineMetrics) IncTransition(status string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncSettlement increments the settlement counter.
func (m *PipelineMetrics) IncSettlement() {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.Inc()
}

// IncOutboxPublished increments the published-events counter.
func (m *PipelineMetrics) IncOutboxPublished() {
	if m == nil || m.outboxPublished == nil {
		return
	}
	m.outboxPublished.Inc()
}

// IncOutboxFailure increments the publish-failure counter.
func (m *PipelineMetrics) IncOutboxFailure() {
	if m == nil || m.outboxFailures == nil {
		return
	}
	m.outboxFailures.Inc()
}

// IncNotification increments the notification counter for the category.
func (m *PipelineMetrics) IncNotification(category string) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(category)).Inc()
}

// ObserveConsumerDuration records the handling duration for the named consumer.
func (m *PipelineMetrics) ObserveConsumerDuration(consumer string, duration time.Duration) {
	if m == nil || m.consumerDuration == nil {
		return
	}
	m.consumerDuration.WithLabelValues(normalizeLabel(consumer)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
