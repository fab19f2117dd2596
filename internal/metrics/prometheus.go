package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRegistry is the Registry backing production deployments. It
// registers its collectors against its own prometheus.Registry rather
// than the global DefaultRegisterer, so that constructing more than one
// (e.g. in tests) never panics on a duplicate-registration collision.
type PrometheusRegistry struct {
	reg *prometheus.Registry

	activeWorkers   prometheus.Gauge
	cacheHitTotal   prometheus.Counter
	cacheMissTotal  prometheus.Counter
	ocrInvocations  prometheus.Counter
}

// NewPrometheusRegistry constructs a PrometheusRegistry with namespace
// prefixed onto every metric name (e.g. namespace "kreuzberg" yields
// kreuzberg_active_workers).
func NewPrometheusRegistry(namespace string) *PrometheusRegistry {
	reg := prometheus.NewRegistry()
	p := &PrometheusRegistry{
		reg: reg,
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_workers",
			Help:      "Number of pool tasks currently executing.",
		}),
		cacheHitTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hit_total",
			Help:      "Number of extraction cache lookups that hit.",
		}),
		cacheMissTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_miss_total",
			Help:      "Number of extraction cache lookups that missed.",
		}),
		ocrInvocations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ocr_invocations_total",
			Help:      "Number of OCR backend invocations, one per page.",
		}),
	}
	reg.MustRegister(p.activeWorkers, p.cacheHitTotal, p.cacheMissTotal, p.ocrInvocations)
	return p
}

func (p *PrometheusRegistry) SetActiveWorkers(n int) { p.activeWorkers.Set(float64(n)) }
func (p *PrometheusRegistry) IncCacheHit()           { p.cacheHitTotal.Inc() }
func (p *PrometheusRegistry) IncCacheMiss()          { p.cacheMissTotal.Inc() }
func (p *PrometheusRegistry) IncOCRInvocation()      { p.ocrInvocations.Inc() }

// Handler returns the http.Handler a cmd/ entrypoint mounts at /metrics.
func (p *PrometheusRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}

var _ Registry = (*PrometheusRegistry)(nil)
