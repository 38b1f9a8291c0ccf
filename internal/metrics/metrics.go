// Package metrics exposes the Prometheus instrumentation shared across
// the observer and analyzer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TickTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdnalyzer_observer_tick_total",
			Help: "Total number of observer ticks, by outcome",
		},
		[]string{"outcome"}, // completed, unhealthy
	)

	TickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sdnalyzer_observer_tick_duration_seconds",
			Help:    "Duration of a full observer tick",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	SensorPrepareDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sdnalyzer_sensor_prepare_duration_seconds",
			Help:    "Duration of a sensor's prepare phase",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"sensor"},
	)

	SensorPrepareTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdnalyzer_sensor_prepare_total",
			Help: "Total number of sensor prepare phases, by outcome",
		},
		[]string{"sensor", "outcome"}, // ok, error, timeout
	)

	SensorApplyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sdnalyzer_sensor_apply_duration_seconds",
			Help:    "Duration of a sensor's apply phase",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"sensor"},
	)

	SensorApplyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdnalyzer_sensor_apply_total",
			Help: "Total number of sensor apply phases, by outcome",
		},
		[]string{"sensor", "outcome"}, // ok, error
	)

	AnalyzerTaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sdnalyzer_analyzer_task_duration_seconds",
			Help:    "Duration of an analyzer task run",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"task"},
	)

	AnalyzerTaskTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sdnalyzer_analyzer_task_total",
			Help: "Total number of analyzer task runs, by outcome",
		},
		[]string{"task", "outcome"}, // ok, error
	)
)
