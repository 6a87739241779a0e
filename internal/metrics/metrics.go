// Package metrics defines the Prometheus collectors of the service. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	bookingsCreated      prometheus.Counter
	bookingConflicts     prometheus.Counter
	bookingStatusChanges *prometheus.CounterVec
	notificationsSent    *prometheus.CounterVec
	notificationFailures *prometheus.CounterVec
	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
	httpInFlight         prometheus.Gauge
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		bookingsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Total number of bookings created",
		}),
		bookingConflicts: f.NewCounter(prometheus.CounterOpts{
			Name: "booking_conflicts_total",
			Help: "Total number of booking requests rejected for overlapping dates",
		}),
		bookingStatusChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_status_changes_total",
			Help: "Total number of booking status changes by target status",
		}, []string{"status"}),
		notificationsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notifications handed to the dispatcher",
		}, []string{"event"}),
		notificationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_failures_total",
			Help: "Total number of notifications that could not be dispatched",
		}, []string{"event"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		httpInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		}),
	}
}

func (m *Metrics) BookingCreated() {
	if m != nil {
		m.bookingsCreated.Inc()
	}
}

func (m *Metrics) BookingConflict() {
	if m != nil {
		m.bookingConflicts.Inc()
	}
}

func (m *Metrics) BookingStatusChanged(status string) {
	if m != nil {
		m.bookingStatusChanges.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) NotificationSent(event string) {
	if m != nil {
		m.notificationsSent.WithLabelValues(event).Inc()
	}
}

func (m *Metrics) NotificationFailed(event string) {
	if m != nil {
		m.notificationFailures.WithLabelValues(event).Inc()
	}
}

// RequestStarted tracks an in-flight request; call the returned func when
// the response is written.
func (m *Metrics) RequestStarted() func(method, path, status string) {
	if m == nil {
		return func(string, string, string) {}
	}
	start := time.Now()
	m.httpInFlight.Inc()
	return func(method, path, status string) {
		m.httpInFlight.Dec()
		m.httpRequests.WithLabelValues(method, path, status).Inc()
		m.httpDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
	}
}
