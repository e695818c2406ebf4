// Package metrics provides Prometheus metrics for searches, page views and imports.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the application collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SearchesTotal    *prometheus.CounterVec
	SearchDuration   prometheus.Histogram
	SearchResults    prometheus.Histogram
	SuggestionsTotal prometheus.Counter

	PageViewsTotal *prometheus.CounterVec

	ImportedTotal     *prometheus.CounterVec
	ImportErrorsTotal prometheus.Counter
}

// New registers the collectors on reg, or on a fresh registry when reg is nil.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	m := &Metrics{registry: reg}

	m.SearchesTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thoreau_searches_total",
			Help: "Total number of searches by outcome",
		},
		[]string{"outcome"},
	)
	m.SearchDuration = f.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "thoreau_search_duration_seconds",
			Help:    "Duration of searches in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
	m.SearchResults = f.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "thoreau_search_results",
			Help:    "Number of matching documents per search",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)
	m.SuggestionsTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "thoreau_search_suggestions_total",
			Help: "Total number of searches answered with spelling suggestions",
		},
	)
	m.PageViewsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thoreau_page_views_total",
			Help: "Total number of rendered pages by role and highlighting",
		},
		[]string{"role", "highlighted"},
	)
	m.ImportedTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "thoreau_imported_total",
			Help: "Total number of imported records by kind",
		},
		[]string{"kind"},
	)
	m.ImportErrorsTotal = f.NewCounter(
		prometheus.CounterOpts{
			Name: "thoreau_import_errors_total",
			Help: "Total number of files that failed to import",
		},
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveSearch records a finished search.
func (m *Metrics) ObserveSearch(d time.Duration, total int) {
	if m == nil {
		return
	}
	outcome := "hit"
	if total == 0 {
		outcome = "empty"
	}
	m.SearchesTotal.WithLabelValues(outcome).Inc()
	m.SearchDuration.Observe(d.Seconds())
	m.SearchResults.Observe(float64(total))
}

// Suggested records a search answered with suggestions.
func (m *Metrics) Suggested() {
	if m == nil {
		return
	}
	m.SuggestionsTotal.Inc()
}

// PageView records a rendered page.
func (m *Metrics) PageView(role string, highlighted bool) {
	if m == nil {
		return
	}
	h := "false"
	if highlighted {
		h = "true"
	}
	m.PageViewsTotal.WithLabelValues(role, h).Inc()
}

// Imported records n imported records of kind.
func (m *Metrics) Imported(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ImportedTotal.WithLabelValues(kind).Add(float64(n))
}

// ImportFailed records a file that could not be imported.
func (m *Metrics) ImportFailed() {
	if m == nil {
		return
	}
	m.ImportErrorsTotal.Inc()
}
