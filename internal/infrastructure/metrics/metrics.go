package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transfer metrics
	TransfersCreated prometheus.Counter
	TransferDuration prometheus.Histogram
	TransferAmount   prometheus.Histogram
	TransferErrors   *prometheus.CounterVec

	// Account metrics
	AccountsOpened    prometheus.Counter
	AccountOperations *prometheus.CounterVec
	LockTimeouts      *prometheus.CounterVec

	// Authentication metrics
	AuthAttempts   *prometheus.CounterVec
	ActiveSessions prometheus.Gauge

	// Event metrics
	EventsPublished prometheus.Counter
	EventErrors     prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Transfer metrics
		TransfersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "goatm_transfers_created_total",
			Help: "Total number of transfers completed",
		}),
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "goatm_transfer_duration_seconds",
			Help:    "Duration of transfer operations including lock waits",
			Buckets: prometheus.DefBuckets,
		}),
		TransferAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "goatm_transfer_amount",
			Help:    "Transfer amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
		}),
		TransferErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goatm_transfer_errors_total",
				Help: "Total number of rejected transfers by type",
			},
			[]string{"error_type"},
		),

		// Account metrics
		AccountsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "goatm_accounts_opened_total",
			Help: "Total number of accounts opened",
		}),
		AccountOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goatm_account_operations_total",
				Help: "Total account operations by type and outcome",
			},
			[]string{"operation", "status"},
		),
		LockTimeouts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goatm_lock_timeouts_total",
				Help: "Total account lock acquisitions that timed out",
			},
			[]string{"operation"},
		),

		// Authentication metrics
		AuthAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "goatm_auth_attempts_total",
				Help: "Total authentication attempts",
			},
			[]string{"status"},
		),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "goatm_active_sessions",
			Help: "Current number of authenticated sessions",
		}),

		// Event metrics
		EventsPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "goatm_events_published_total",
			Help: "Total outbox events published",
		}),
		EventErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "goatm_event_errors_total",
			Help: "Total outbox events that failed to publish",
		}),
	}
}

