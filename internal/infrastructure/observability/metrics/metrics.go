// Package metrics provides Prometheus instrumentation for sitekeep.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sitekeep"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeBroken  = "broken"
	OutcomeValid   = "valid"
	OutcomeSkipped = "skipped"
)

// Metrics holds the collectors for one registry. A nil *Metrics records nothing.
type Metrics struct {
	registry         *prometheus.Registry
	invalidations    *prometheus.CounterVec
	scanItems        *prometheus.CounterVec
	reorganizeSteps  *prometheus.CounterVec
	freshnessQueries *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, including the Go and process
// collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		invalidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalidations_total",
			Help:      "Render cache invalidation calls by kind and outcome.",
		}, []string{"kind", "outcome"}),
		scanItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scan_items_total",
			Help:      "Items checked by the integrity scanner by report section and outcome.",
		}, []string{"section", "outcome"}),
		reorganizeSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reorganize_steps_total",
			Help:      "Storage reorganizer steps by step and outcome.",
		}, []string{"step", "outcome"}),
		freshnessQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "freshness_queries_total",
			Help:      "Freshness token computations by result.",
		}, []string{"result"}),
	}
	registry.MustRegister(m.invalidations, m.scanItems, m.reorganizeSteps, m.freshnessQueries)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordInvalidation(kind string, err error) {
	if m == nil {
		return
	}
	m.invalidations.WithLabelValues(kind, outcome(err)).Inc()
}

func (m *Metrics) RecordScanItem(section, result string) {
	if m == nil {
		return
	}
	m.scanItems.WithLabelValues(section, result).Inc()
}

func (m *Metrics) RecordReorganizeStep(step string, err error) {
	if m == nil {
		return
	}
	m.reorganizeSteps.WithLabelValues(step, outcome(err)).Inc()
}

func (m *Metrics) RecordFreshness(result string) {
	if m == nil {
		return
	}
	m.freshnessQueries.WithLabelValues(result).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
