// Package metrics defines the optional observability surface SPEC_FULL
// §10.5 calls for: active_workers, cache_hit_total, cache_miss_total and
// ocr_invocations_total, exposed behind a small Registry interface so
// the core engine never requires a running Prometheus endpoint.
// Grounded on virtengine-virtengine's go.mod, which carries
// prometheus/client_golang as a direct dependency (never used anywhere
// by the teacher itself) -- the real implementation here wires that
// library in; NoopRegistry is the zero-dependency default every
// internal/pool.Manager and internal/cache.Cache is constructed with
// unless a caller opts in via WithMetrics.
package metrics

// Registry is the metrics surface internal/pool and internal/cache emit
// to. Implementations must be safe for concurrent use.
type Registry interface {
	// SetActiveWorkers reports the pool's current in-flight task count.
	SetActiveWorkers(n int)
	// IncCacheHit counts one cache lookup that found a cached result.
	IncCacheHit()
	// IncCacheMiss counts one cache lookup that found nothing.
	IncCacheMiss()
	// IncOCRInvocation counts one OCR backend invocation (per page).
	IncOCRInvocation()
}

// NoopRegistry discards every observation. It is the default Registry
// for both internal/pool.Manager and internal/cache.Cache.
type NoopRegistry struct{}

func (NoopRegistry) SetActiveWorkers(int) {}
func (NoopRegistry) IncCacheHit()         {}
func (NoopRegistry) IncCacheMiss()        {}
func (NoopRegistry) IncOCRInvocation()    {}

var _ Registry = NoopRegistry{}
