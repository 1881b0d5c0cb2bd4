// Package metrics exposes Prometheus instrumentation for the screener and
// its resilience helpers.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Easy-Infra-Ltd/deepguard-screener/src/resilience"
	"github.com/Easy-Infra-Ltd/deepguard-screener/src/screener"
)

const namespace = "deepguard"

// Metrics holds the collectors for one process. Each instance owns its
// registry so tests can create as many as they like.
type Metrics struct {
	reg *prometheus.Registry

	scans        *prometheus.CounterVec
	threats      prometheus.Counter
	warnings     prometheus.Counter
	scanDuration prometheus.Histogram
	retries      *prometheus.CounterVec
	breakerState *prometheus.GaugeVec
}

// New registers all collectors on a fresh registry, including the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		scans: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "screener",
			Name:      "scans_total",
			Help:      "Files screened, by outcome (safe, warning, threat).",
		}, []string{"status"}),
		threats: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "screener",
			Name:      "threats_total",
			Help:      "Threat findings across all scans.",
		}),
		warnings: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "screener",
			Name:      "warnings_total",
			Help:      "Warning findings across all scans.",
		}),
		scanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "screener",
			Name:      "scan_duration_seconds",
			Help:      "Wall-clock time of a single file scan.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		retries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "retries_total",
			Help:      "Retry attempts after a failure, by operation.",
		}, []string{"operation"}),
		breakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "resilience",
			Name:      "breaker_state",
			Help:      "Circuit breaker state: 0 closed, 1 open, 2 half-open.",
		}, []string{"breaker"}),
	}
}

// ObserveScan records the outcome of one scan.
func (m *Metrics) ObserveScan(r screener.ScanResult) {
	m.scans.WithLabelValues(string(r.Status())).Inc()
	m.threats.Add(float64(len(r.Threats)))
	m.warnings.Add(float64(len(r.Warnings)))
	m.scanDuration.Observe(r.Duration.Seconds())
}

// OnRetry returns a resilience.RetryOptions.OnRetry hook counting retries
// of the named operation.
func (m *Metrics) OnRetry(operation string) func(int, error) {
	c := m.retries.WithLabelValues(operation)
	return func(int, error) { c.Inc() }
}

// BreakerListener returns a state listener for resilience.WithStateListener
// that tracks the named breaker.
func (m *Metrics) BreakerListener(name string) func(from, to resilience.State) {
	g := m.breakerState.WithLabelValues(name)
	g.Set(float64(resilience.StateClosed))
	return func(_, to resilience.State) { g.Set(float64(to)) }
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}
