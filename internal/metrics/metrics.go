// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ordersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orderdesk",
			Name:      "orders_created_total",
			Help:      "Count of order creation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orderdesk",
			Name:      "order_status_transitions_total",
			Help:      "Count of appended order statuses by target state.",
		},
		[]string{"state"},
	)

	batchesRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "orderdesk",
			Name:      "status_batches_rejected_total",
			Help:      "Count of bulk status updates rejected without changes.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "orderdesk",
			Name:      "http_requests_total",
			Help:      "Count of API requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "orderdesk",
			Name:      "http_request_duration_seconds",
			Help:      "API request latency by route.",
			Buckets:   []float64{.005, .01, .05, .1, .5, 1, 2},
		},
		[]string{"route"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(ordersCreated, statusTransitions, batchesRejected, httpRequests, httpDuration)
	})
}

func IncOrderCreated(outcome string) {
	ordersCreated.WithLabelValues(outcome).Inc()
}

func AddStatusTransitions(state string, n int) {
	statusTransitions.WithLabelValues(state).Add(float64(n))
}

func IncBatchRejected() {
	batchesRejected.Inc()
}

func ObserveRequest(route, code string, seconds float64) {
	httpRequests.WithLabelValues(route, code).Inc()
	httpDuration.WithLabelValues(route).Observe(seconds)
}
