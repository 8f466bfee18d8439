package telemetry

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics implements factorcache.Metrics with prometheus counters, so
// cache hit/miss rate is observable the way the teacher exposed node
// health gauges through its own registry.
type CacheMetrics struct {
	hits   prometheus.Counter
	misses prometheus.Counter
}

// NewCacheMetrics registers and returns a CacheMetrics bound to registry.
func NewCacheMetrics(registry *prometheus.Registry) *CacheMetrics {
	m := &CacheMetrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shieldcore_factor_cache_hits_total",
			Help: "Number of factor-instance cache queries satisfied without deriving new keys.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shieldcore_factor_cache_misses_total",
			Help: "Number of factor-instance cache queries that required deriving new keys.",
		}),
	}
	registry.MustRegister(m.hits, m.misses)
	return m
}

// Hit implements factorcache.Metrics.
func (m *CacheMetrics) Hit() { m.hits.Inc() }

// Miss implements factorcache.Metrics.
func (m *CacheMetrics) Miss() { m.misses.Inc() }
