// Package metrics provides Prometheus metrics for LogPipe.
// It tracks production, buffer occupancy and sink delivery so back-pressure
// and drain behavior are observable from the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "logpipe"
)

// Producer metrics track record generation.
var (
	// RecordsProducedTotal counts records accepted by the buffer.
	RecordsProducedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_produced_total",
			Help:      "Total number of records accepted by the buffer",
		},
		[]string{"severity"},
	)

	// RecordsRejectedTotal counts pushes refused because the buffer was closed.
	RecordsRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_rejected_total",
			Help:      "Total number of pushes refused by a closed buffer",
		},
	)

	// ProducerFailuresTotal counts producer loop iterations that failed.
	ProducerFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "producer_failures_total",
			Help:      "Total number of failed producer iterations",
		},
		[]string{"producer"},
	)
)

// Buffer metrics track queue health.
var (
	// BufferDepth tracks the current number of records in the buffer.
	BufferDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_depth",
			Help:      "Current number of records in the buffer",
		},
	)

	// BufferCapacity reports the configured buffer capacity.
	BufferCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "buffer_capacity",
			Help:      "Configured capacity of the buffer",
		},
	)
)

// Consumer and sink metrics track the delivery side.
var (
	// RecordsConsumedTotal counts records popped and handed to the sink.
	RecordsConsumedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_consumed_total",
			Help:      "Total number of records delivered to the sink",
		},
	)

	// SinkAppendFailuresTotal counts failed sink appends.
	SinkAppendFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_append_failures_total",
			Help:      "Total number of failed sink append operations",
		},
		[]string{"consumer"},
	)

	// SinkAppendLatency measures the time to append one record.
	SinkAppendLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sink_append_latency_seconds",
			Help:      "Time to append a single record to the sink in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5},
		},
	)
)
