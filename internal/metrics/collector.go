package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session metrics
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "winelog_sessions_total",
			Help: "Query sessions by terminal state",
		},
		[]string{"state"},
	)
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "winelog_active_sessions",
			Help: "Number of sessions currently streaming",
		},
	)
	OpenErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "winelog_open_errors_total",
			Help: "Failed session opens by error kind",
		},
		[]string{"kind"},
	)

	// Read loop metrics
	RowsEmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "winelog_rows_emitted_total",
			Help: "Decoded rows handed to consumers",
		},
		[]string{"target"},
	)
	BatchRecords = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "winelog_batch_records",
			Help:    "Records returned per batch fetch",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)
	BatchTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "winelog_batch_timeouts_total",
			Help: "Batch fetches that expired before records were available",
		},
	)
	BufferGrowthsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "winelog_buffer_growths_total",
			Help: "Buffer reallocations after an insufficient buffer report",
		},
		[]string{"buffer"},
	)

	// Decode metrics
	DecodeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "winelog_decode_errors_total",
			Help: "Records that failed to decode, by policy applied",
		},
		[]string{"policy"},
	)
)
