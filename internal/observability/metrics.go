package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/riskibarqy/fbref-report/internal/domain/task"
	"github.com/riskibarqy/fbref-report/internal/platform/resilience"
)

const metricsNamespace = "fbref"

// Metrics owns a private Prometheus registry for the scraper and report
// pipeline. It implements the page-load and report observers.
type Metrics struct {
	registry *prometheus.Registry

	pageLoads      *prometheus.CounterVec
	reports        *prometheus.CounterVec
	reportDuration prometheus.Histogram
	fixtureLookups *prometheus.CounterVec
	breakerState   prometheus.Gauge
	breakerChanges *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pageLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "page_loads_total",
			Help:      "Browser navigation attempts by outcome.",
		}, []string{"outcome"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reports_total",
			Help:      "Finished report jobs by terminal status.",
		}, []string{"status"}),
		reportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "report_duration_seconds",
			Help:      "Wall time of report jobs.",
			Buckets:   []float64{15, 30, 60, 120, 300, 600, 1200},
		}),
		fixtureLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fixture_lookups_total",
			Help:      "Fixture listing lookups by cache result.",
		}, []string{"result"}),
		breakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "navigation_breaker_state",
			Help:      "Navigation circuit breaker state: 0 closed, 1 half-open, 2 open.",
		}),
		breakerChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "navigation_breaker_transitions_total",
			Help:      "Navigation circuit breaker transitions.",
		}, []string{"from", "to"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.pageLoads,
		m.reports,
		m.reportDuration,
		m.fixtureLookups,
		m.breakerState,
		m.breakerChanges,
	)
	return m
}

func (m *Metrics) ObservePageLoad(outcome string) {
	m.pageLoads.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveReport(status task.Status, duration time.Duration) {
	m.reports.WithLabelValues(string(status)).Inc()
	m.reportDuration.Observe(duration.Seconds())
}

// ObserveFixtureLookup counts fixture cache hits and misses.
func (m *Metrics) ObserveFixtureLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.fixtureLookups.WithLabelValues(result).Inc()
}

// ObserveBreaker matches resilience.StateListener.
func (m *Metrics) ObserveBreaker(from, to resilience.CircuitState) {
	m.breakerChanges.WithLabelValues(string(from), string(to)).Inc()
	m.breakerState.Set(breakerStateValue(to))
}

// GaugeFunc registers a gauge sampled on every scrape.
func (m *Metrics) GaugeFunc(name, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      name,
		Help:      help,
	}, fn))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func breakerStateValue(state resilience.CircuitState) float64 {
	switch state {
	case resilience.CircuitStateHalfOpen:
		return 1
	case resilience.CircuitStateOpen:
		return 2
	default:
		return 0
	}
}
