// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus counters for searches, insight
// generation, and questions. All methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "research_assistant"

// Outcome labels for generated insights.
const (
	OutcomeOK       = "ok"
	OutcomeFallback = "fallback"
)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	searches      prometheus.Counter
	fetchedPapers *prometheus.CounterVec
	insights      *prometheus.CounterVec
	questions     prometheus.Counter
	sessions      prometheus.Gauge
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		searches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Number of searches run.",
		}),
		fetchedPapers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetched_papers_total",
			Help:      "Paper records returned, by source.",
		}, []string{"source"}),
		insights: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insights_total",
			Help:      "Generated insights by kind (paper, comparison) and outcome (ok, fallback).",
		}, []string{"kind", "outcome"}),
		questions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_total",
			Help:      "Questions answered.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions held by the HTTP server.",
		}),
	}
	m.registry.MustRegister(m.searches, m.fetchedPapers, m.insights, m.questions, m.sessions)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSearch records one search and the number of records per source.
func (m *Metrics) ObserveSearch(perSource map[string]int) {
	if m == nil {
		return
	}
	m.searches.Inc()
	for source, n := range perSource {
		m.fetchedPapers.WithLabelValues(source).Add(float64(n))
	}
}

// ObserveInsight records a generated insight of the given kind.
func (m *Metrics) ObserveInsight(kind string, failed bool) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if failed {
		outcome = OutcomeFallback
	}
	m.insights.WithLabelValues(kind, outcome).Inc()
}

// ObserveQuestion records one answered question.
func (m *Metrics) ObserveQuestion() {
	if m == nil {
		return
	}
	m.questions.Inc()
}

// SetSessions records the number of live sessions.
func (m *Metrics) SetSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}
