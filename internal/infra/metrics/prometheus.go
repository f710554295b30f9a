package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ComparisonsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framecatcher_comparisons_total",
		Help: "Total number of comparisons processed, by outcome",
	}, []string{"outcome"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "framecatcher_stage_duration_seconds",
		Help:    "Duration of comparison pipeline stages",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"stage"})

	FramesDiffedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "framecatcher_frames_diffed_total",
		Help: "Total number of frame pairs compared across all jobs",
	})

	MismatchedFramesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "framecatcher_mismatched_frames_total",
		Help: "Total number of frame pairs that differed",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "framecatcher_active_workers",
		Help: "Number of currently active workers processing comparisons",
	})

	RetryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "framecatcher_retry_total",
		Help: "Total number of retries",
	}, []string{"attempt"})
)
