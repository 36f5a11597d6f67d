package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	PaymentsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_published_total",
			Help: "Payments handed to the broker by the producer",
		},
		[]string{"status"},
	)

	PaymentsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_processed_total",
			Help: "Deliveries settled by the worker, by outcome",
		},
		[]string{"outcome"},
	)

	PaymentAmounts = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_amounts",
			Help:    "Distribution of persisted payment amounts",
			Buckets: prometheus.LinearBuckets(0, 50, 20),
		},
		[]string{"currency"},
	)

	ProcessingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "payment_processing_seconds",
			Help:    "Time spent handling a single delivery",
			Buckets: prometheus.DefBuckets,
		},
	)

	BrokerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "amqp_connection_state",
			Help: "1 for the current broker connection state, 0 otherwise",
		},
		[]string{"state"},
	)

	registerOnce  sync.Once
	brokerStateMu sync.Mutex
)

const (
	OutcomeAcked        = "acked"
	OutcomeRetried      = "retried"
	OutcomeDeadLettered = "dead_lettered"
	OutcomeRequeued     = "requeued"
)

// RegisterMetrics registers the collectors with the default registry. Both
// binaries and the tests may call it more than once.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			PaymentsPublished,
			PaymentsProcessed,
			PaymentAmounts,
			ProcessingDuration,
			BrokerState,
		)
	})
}

// SetBrokerState flips the state gauge so exactly one label reads 1.
func SetBrokerState(current string, all ...string) {
	brokerStateMu.Lock()
	defer brokerStateMu.Unlock()

	for _, s := range all {
		BrokerState.WithLabelValues(s).Set(0)
	}
	BrokerState.WithLabelValues(current).Set(1)
}
