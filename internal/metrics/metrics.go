// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "zkmsg"

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "route"},
	)

	ProofsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proof",
			Name:      "generated_total",
			Help:      "Proof generation attempts by outcome",
		},
		[]string{"outcome"},
	)

	ProofDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "proof",
			Name:      "generation_seconds",
			Help:      "Time spent generating a proof",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	ProofsVerified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proof",
			Name:      "verified_total",
			Help:      "Proof verifications by result",
		},
		[]string{"result"},
	)

	ProverInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "proof",
			Name:      "in_flight",
			Help:      "Proofs currently being generated",
		},
	)

	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "total",
			Help:      "Message lifecycle events",
		},
		[]string{"event"},
	)

	BlobOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "blobstore",
			Name:      "operations_total",
			Help:      "Blob store operations by backend, operation and outcome",
		},
		[]string{"backend", "op", "outcome"},
	)

	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "connected_clients",
			Help:      "Open websocket notification connections",
		},
	)
)

// Outcome returns the label value for an operation result.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
