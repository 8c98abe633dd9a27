package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ibsync_records_total",
			Help: "Install-base records counter by sync outcome",
		},
		[]string{"result"}, // stored|fetch_failed|store_failed|malformed
	)

	CyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ibsync_cycles_total",
			Help: "Sync cycles counter by outcome",
		},
		[]string{"result"}, // completed|incomplete|aborted|skipped
	)

	CycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ibsync_cycle_duration_seconds",
			Help:    "Wall-clock duration of one full sync cycle",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14), // 1s .. ~2.3h
		},
	)

	LastCycleTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ibsync_last_cycle_timestamp_seconds",
			Help: "Unix time the last cycle finished",
		},
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		RecordsTotal,
		CyclesTotal,
		CycleDuration,
		LastCycleTimestamp,
	)
}
