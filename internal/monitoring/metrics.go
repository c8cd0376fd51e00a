// Package monitoring exposes Prometheus metrics for the service.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	SelectionDuration prometheus.Histogram
	SelectionPOIs     prometheus.Histogram
	UpstreamRequests  *prometheus.CounterVec
	NeighborLookups   *prometheus.CounterVec
}

// New creates the metric set and registers the standard Go and process
// collectors alongside it.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		reg: reg,
		SelectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "randoscope_selection_duration_seconds",
			Help:    "End-to-end selection time: fetch, classify, style.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		SelectionPOIs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "randoscope_selection_pois",
			Help:    "POIs returned per selection.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "randoscope_upstream_requests_total",
			Help: "Upstream requests by service and outcome.",
		}, []string{"service", "outcome"}),
		NeighborLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "randoscope_neighbor_lookups_total",
			Help: "Neighbor-zone lookups by zone kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		m.SelectionDuration,
		m.SelectionPOIs,
		m.UpstreamRequests,
		m.NeighborLookups,
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
