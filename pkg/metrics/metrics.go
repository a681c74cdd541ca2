// Package metrics exports provider-chain and cache counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haivivi/cropcare/pkg/cache"
	"github.com/haivivi/cropcare/pkg/fallback"
)

const namespace = "cropcare"

// CacheSource is a cache whose counters are exported.
type CacheSource interface {
	Name() string
	Len() int
	Stats() cache.Stats
}

// Metrics owns a registry and the collectors registered on it.
type Metrics struct {
	reg       *prometheus.Registry
	attempts  *prometheus.CounterVec
	exhausted *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

var _ fallback.Observer = (*Metrics)(nil)

// New creates a registry with the chain collectors and the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_attempts_total",
			Help:      "Provider calls made by fallback chains.",
		}, []string{"chain", "provider", "outcome"}),
		exhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chain_exhausted_total",
			Help:      "Chain invocations where every provider failed.",
		}, []string{"chain"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chain_duration_seconds",
			Help:      "Wall time of fallback chain invocations.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"chain"}),
	}
	m.reg.MustRegister(
		m.attempts,
		m.exhausted,
		m.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Observe records a chain trace.
func (m *Metrics) Observe(t fallback.Trace) {
	for _, a := range t.Attempts {
		m.attempts.WithLabelValues(t.Chain, a.Provider, a.Outcome()).Inc()
	}
	if t.Exhausted() {
		m.exhausted.WithLabelValues(t.Chain).Inc()
	}
	m.latency.WithLabelValues(t.Chain).Observe(t.Elapsed.Seconds())
}

// RegisterCache exports size, hit, miss and eviction counters for c.
func (m *Metrics) RegisterCache(c CacheSource) {
	labels := prometheus.Labels{"cache": c.Name()}
	counter := func(name, help string, read func(cache.Stats) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "cache",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, func() float64 { return float64(read(c.Stats())) })
	}
	m.reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "cache",
			Name:        "entries",
			Help:        "Entries currently cached.",
			ConstLabels: labels,
		}, func() float64 { return float64(c.Len()) }),
		counter("hits_total", "Cache hits.", func(s cache.Stats) uint64 { return s.Hits }),
		counter("misses_total", "Cache misses.", func(s cache.Stats) uint64 { return s.Misses }),
		counter("evictions_total", "Entries removed by batch eviction.", func(s cache.Stats) uint64 { return s.Evictions }),
	)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
