package market

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "market"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of tokens minted.
	Mints metrics.Counter
	// Number of listings created, labeled by kind (fixed or auction).
	Listings metrics.Counter
	// Number of accepted bids.
	Bids metrics.Counter
	// Number of completed sales, labeled by kind.
	Sales metrics.Counter
	// Sum of sale prices in ether, labeled by kind.
	SaleVolume metrics.Counter
	// Number of settled auctions, labeled by outcome.
	Settlements metrics.Counter
	// Number of auctions currently open.
	OpenAuctions metrics.Gauge
	// Number of rejected operations, labeled by reason.
	Rejected metrics.Counter
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		Mints: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "mints",
			Help:      "Number of tokens minted.",
		}, labels).With(labelsAndValues...),
		Listings: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "listings",
			Help:      "Number of listings created.",
		}, withLabel(labels, "kind")).With(labelsAndValues...),
		Bids: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "bids",
			Help:      "Number of accepted bids.",
		}, labels).With(labelsAndValues...),
		Sales: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "sales",
			Help:      "Number of completed sales.",
		}, withLabel(labels, "kind")).With(labelsAndValues...),
		SaleVolume: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "sale_volume_ether",
			Help:      "Sum of sale prices in ether.",
		}, withLabel(labels, "kind")).With(labelsAndValues...),
		Settlements: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "settlements",
			Help:      "Number of settled auctions.",
		}, withLabel(labels, "outcome")).With(labelsAndValues...),
		OpenAuctions: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "open_auctions",
			Help:      "Number of auctions currently open.",
		}, labels).With(labelsAndValues...),
		Rejected: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "rejected_operations",
			Help:      "Number of rejected operations.",
		}, withLabel(labels, "reason")).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Mints:        discard.NewCounter(),
		Listings:     discard.NewCounter(),
		Bids:         discard.NewCounter(),
		Sales:        discard.NewCounter(),
		SaleVolume:   discard.NewCounter(),
		Settlements:  discard.NewCounter(),
		OpenAuctions: discard.NewGauge(),
		Rejected:     discard.NewCounter(),
	}
}

func withLabel(labels []string, name string) []string {
	out := make([]string, 0, len(labels)+1)
	return append(append(out, labels...), name)
}
