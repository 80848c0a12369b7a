package indexer

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "indexer"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Latency for indexing one block, labeled by sink.
	BatchSeconds metrics.Histogram
	// Number of blocks indexed.
	BatchesIndexed metrics.Counter
	// Number of events indexed.
	EventsIndexed metrics.Counter
	// Number of failed batch writes, labeled by sink.
	Failures metrics.Counter
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	sinkLabels := append(append(make([]string, 0, len(labels)+1), labels...), "sink")
	return &Metrics{
		BatchSeconds: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "batch_seconds",
			Help:      "Latency for indexing the events of one block.",
			Buckets:   stdprometheus.ExponentialBuckets(0.001, 4, 8),
		}, sinkLabels).With(labelsAndValues...),
		BatchesIndexed: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "batches_indexed",
			Help:      "Number of blocks indexed.",
		}, labels).With(labelsAndValues...),
		EventsIndexed: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "events_indexed",
			Help:      "Number of events indexed.",
		}, labels).With(labelsAndValues...),
		Failures: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "failures",
			Help:      "Number of failed batch writes.",
		}, sinkLabels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		BatchSeconds:   discard.NewHistogram(),
		BatchesIndexed: discard.NewCounter(),
		EventsIndexed:  discard.NewCounter(),
		Failures:       discard.NewCounter(),
	}
}
