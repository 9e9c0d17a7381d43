package client

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// NewMetricsListener registers the orchestrator metrics with reg and returns a listener feeding them.
func NewMetricsListener(reg prometheus.Registerer) (EventListener, error) {
	txs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "client",
		Name:      "transactions",
	}, []string{"status"})
	settleLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "client",
		Name:      "settle_latency_seconds",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})
	syncs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "client",
		Name:      "syncs",
	}, []string{"result"})
	syncLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "client",
		Name:      "sync_latency_seconds",
		Buckets:   prometheus.DefBuckets,
	})
	polls := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "client",
		Name:      "poll_attempts",
	})

	for _, c := range []prometheus.Collector{txs, settleLatency, syncs, syncLatency, polls} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return &SelectiveListener{
		OnSubmittedCb: func() {
			txs.WithLabelValues("submitted").Inc()
		},
		OnSettledCb: func(latency time.Duration) {
			txs.WithLabelValues("settled").Inc()
			settleLatency.Observe(latency.Seconds())
		},
		OnRevertedCb: func() {
			txs.WithLabelValues("reverted").Inc()
		},
		OnSyncCb: func(duration time.Duration, err error) {
			result := "ok"
			if err != nil {
				result = "error"
			}
			syncs.WithLabelValues(result).Inc()
			syncLatency.Observe(duration.Seconds())
		},
		OnPollAttemptCb: polls.Inc,
	}, nil
}
