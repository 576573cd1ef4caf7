// Package monitoring exposes Prometheus metrics for the booking engine.
// Metrics are registered on the default registry and served by the
// /metrics endpoint.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_attempts_total",
			Help: "Booking transaction outcomes",
		},
		[]string{"outcome"},
	)

	bookingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "booking_transaction_duration_seconds",
			Help:    "Duration of the booking transaction from validation to commit",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups per query kind",
		},
		[]string{"kind", "result"},
	)
)

// RecordBooking counts a booking transaction outcome: committed,
// rejected or error.
func RecordBooking(outcome string) {
	bookingOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveBookingDuration records how long a committed booking
// transaction took.
func ObserveBookingDuration(d time.Duration) {
	bookingDuration.Observe(d.Seconds())
}

// RecordCacheLookup counts a cache hit or miss for a query kind
// (listing, availability).
func RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(kind, result).Inc()
}
