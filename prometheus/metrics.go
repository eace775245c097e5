package prometheus

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Order metrics
	OrdersCreatedCounter      *prometheus.CounterVec
	OrderStatusUpdatesCounter *prometheus.CounterVec

	// Payment metrics
	PaymentsCreatedCounter *prometheus.CounterVec
	PaymentStatusCounter   *prometheus.CounterVec
	WebhookEventsCounter   *prometheus.CounterVec

	// Authentication metrics
	AuthAttemptsCounter *prometheus.CounterVec
	AuthErrorsCounter   *prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	initOnce sync.Once
)

// InitMetrics registers the domain metrics under the given prefix.
// Only the first call has any effect.
func InitMetrics(prefix string) {
	initOnce.Do(func() {
		OrdersCreatedCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_orders_created_total",
				Help: "Total number of orders created",
			},
			[]string{"source"},
		)

		OrderStatusUpdatesCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_order_status_updates_total",
				Help: "Total number of order status changes",
			},
			[]string{"status", "actor"},
		)

		PaymentsCreatedCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_payments_created_total",
				Help: "Total number of payment records created",
			},
			[]string{"kind"},
		)

		PaymentStatusCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_payment_status_changes_total",
				Help: "Total number of payment status changes",
			},
			[]string{"status", "source"},
		)

		WebhookEventsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_webhook_events_total",
				Help: "Total number of payment gateway callbacks",
			},
			[]string{"status", "result"},
		)

		AuthAttemptsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_auth_attempts_total",
				Help: "Total number of login attempts",
			},
			[]string{"role"},
		)

		AuthErrorsCounter = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_auth_errors_total",
				Help: "Total number of failed logins",
			},
			[]string{"role", "reason"},
		)

		DbOperationDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_db_operation_duration_seconds",
				Help:    "Duration of database operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation_type"},
		)
	})
}

// RecordOrdersCreated increments the order counter
func RecordOrdersCreated(source string, n int) {
	if OrdersCreatedCounter != nil {
		OrdersCreatedCounter.WithLabelValues(source).Add(float64(n))
	}
}

// RecordOrderStatusUpdate counts a status change made by the given actor
func RecordOrderStatusUpdate(status, actor string) {
	if OrderStatusUpdatesCounter != nil {
		OrderStatusUpdatesCounter.WithLabelValues(status, actor).Inc()
	}
}

// RecordPaymentsCreated increments the payment counter
func RecordPaymentsCreated(kind string, n int) {
	if PaymentsCreatedCounter != nil {
		PaymentsCreatedCounter.WithLabelValues(kind).Add(float64(n))
	}
}

// RecordPaymentStatus counts a payment status change
func RecordPaymentStatus(status, source string) {
	if PaymentStatusCounter != nil {
		PaymentStatusCounter.WithLabelValues(status, source).Inc()
	}
}

// RecordWebhookEvent counts a gateway callback and its outcome
func RecordWebhookEvent(status, result string) {
	if WebhookEventsCounter != nil {
		WebhookEventsCounter.WithLabelValues(status, result).Inc()
	}
}

// RecordAuthAttempt counts a login attempt
func RecordAuthAttempt(role string) {
	if AuthAttemptsCounter != nil {
		AuthAttemptsCounter.WithLabelValues(role).Inc()
	}
}

// RecordAuthError counts a failed login
func RecordAuthError(role, reason string) {
	if AuthErrorsCounter != nil {
		AuthErrorsCounter.WithLabelValues(role, reason).Inc()
	}
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(time.Time) {
	return func(start time.Time) {
		if DbOperationDuration != nil {
			DbOperationDuration.WithLabelValues(operationType).Observe(time.Since(start).Seconds())
		}
	}
}
