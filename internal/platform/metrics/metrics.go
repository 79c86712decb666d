package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Latencia HTTP (segundos)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms a ~4s
		},
		[]string{"method", "route", "status"},
	)

	MedicationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medications_created_total",
			Help: "Total number of medications created",
		},
	)

	DosesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "doses_created_total",
			Help: "Total number of dose records created",
		},
	)

	DosesTaken = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "doses_taken_total",
			Help: "Total number of doses marked as taken",
		},
		[]string{"result"}, // marked, already_taken
	)

	AlertsShown = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reminder_alerts_shown_total",
			Help: "Total number of reminder alerts displayed",
		},
	)

	AlertAcks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminder_alert_acks_total",
			Help: "Reminder acknowledgments by outcome",
		},
		[]string{"outcome"}, // taken, stale, noop, failed
	)

	NotifierSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reminder_notifier_sessions",
			Help: "Open server-side notifier sessions",
		},
	)

	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Rejected Authorization headers",
		},
		[]string{"reason"}, // invalid_token, malformed_header
	)

	DoseCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dose_cache_lookups_total",
			Help: "Today's doses cache lookups",
		},
		[]string{"result"}, // hit, miss, error
	)
)

func RecordHTTPRequest(method, route, status string, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}
