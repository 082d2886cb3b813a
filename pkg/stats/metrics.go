package stats

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "paystell"

var (
	// HTTPRequestsTotal counts the served HTTP requests by route template.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distributions.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.3, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"method", "route"},
	)

	// DepositTransitions counts the deposit status changes notified.
	DepositTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deposit_transitions_total",
			Help:      "Deposit requests entering a status.",
		},
		[]string{"status"},
	)

	// TransactionTransitions counts the optimistic transaction status changes
	// notified.
	TransactionTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transaction_transitions_total",
			Help:      "Optimistic transactions entering a status.",
		},
		[]string{"status"},
	)

	ReplayRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replay_rejections_total",
			Help:      "Signed envelopes rejected because already processed.",
		},
	)

	// ChannelState is 1 for the current state of the realtime channel, 0 for
	// the others.
	ChannelState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_channel_state",
			Help:      "Current state of the realtime channel.",
		},
		[]string{"state"},
	)

	ChannelReconnects = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_channel_reconnect_attempts",
			Help:      "Reconnect attempts since the last successful connection.",
		},
	)

	initOnce sync.Once
)

// Init registers the collectors with the default prometheus registry. It can
// be called more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			DepositTransitions,
			TransactionTransitions,
			ReplayRejections,
			ChannelState,
			ChannelReconnects,
		)
	})
}

// SetChannelState flags the given state as the current one among the known
// ones.
func SetChannelState(current string, states []string, reconnectAttempts int) {
	for _, s := range states {
		v := 0.0
		if s == current {
			v = 1
		}
		ChannelState.WithLabelValues(s).Set(v)
	}
	ChannelReconnects.Set(float64(reconnectAttempts))
}
