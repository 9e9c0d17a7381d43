package node

import (
	"math"
	"time"

	"github.com/NethermindEth/notewise/db"
	"github.com/prometheus/client_golang/prometheus"
)

// storeLatencyBuckets are in microseconds.
var storeLatencyBuckets = []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 50000, 500000, math.Inf(0)}

// makeDBMetrics observes every read and write of the local store, labelled by operation.
func makeDBMetrics(reg prometheus.Registerer) (db.EventListener, error) {
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "store",
		Name:      "io_latency_microseconds",
		Help:      "Latency of local store operations.",
		Buckets:   storeLatencyBuckets,
	}, []string{"op"})
	if err := reg.Register(latency); err != nil {
		return nil, err
	}

	reads, writes := latency.WithLabelValues("read"), latency.WithLabelValues("write")
	return &db.SelectiveListener{
		OnIOCb: func(write bool, duration time.Duration) {
			observer := reads
			if write {
				observer = writes
			}
			observer.Observe(float64(duration.Microseconds()))
		},
	}, nil
}
