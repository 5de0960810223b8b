/*
Package metrics exports cache activity to Prometheus.

Two views are provided:
- Events is a types.Metrics that counts hits, misses and evictions as they
  happen. Its counters are atomic and can be scraped at any time.
- Collector reads the cache's own counters when gathered. The cache is not
  safe for concurrent use, so a Collector must only be gathered while the
  cache is idle (for example after a run).
*/
package metrics

import (
	"github.com/cockroachdb/errors"
	"github.com/krisalay/recency-cache/api"
	"github.com/krisalay/recency-cache/types"
	"github.com/prometheus/client_golang/prometheus"
)

const subsystem = "cache"

var _ types.Metrics = (*Events)(nil)

// Events counts cache events in Prometheus counters.
type Events struct {
	hits      prometheus.Counter
	misses    prometheus.Counter
	evictions prometheus.Counter
}

// NewEvents creates the event counters and registers them with reg.
func NewEvents(namespace string, reg prometheus.Registerer) (*Events, error) {
	e := &Events{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "hit_events_total",
			Help:      "Lookups that found their key.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "miss_events_total",
			Help:      "Lookups that did not find their key.",
		}),
		evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "evictions_total",
			Help:      "Records evicted because the cache was full.",
		}),
	}

	for _, c := range []prometheus.Collector{e.hits, e.misses, e.evictions} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "register cache event counter")
		}
	}
	return e, nil
}

func (e *Events) Hit()      { e.hits.Inc() }
func (e *Events) Miss()     { e.misses.Inc() }
func (e *Events) Eviction() { e.evictions.Inc() }

var _ prometheus.Collector = (*Collector)(nil)

// Collector exposes the lookup, hit and miss counters and the hit ratio of
// a cache.
type Collector struct {
	counters api.Counters

	lookups *prometheus.Desc
	hits    *prometheus.Desc
	misses  *prometheus.Desc
	ratio   *prometheus.Desc
}

func NewCollector(namespace string, counters api.Counters) *Collector {
	name := func(n string) string {
		return prometheus.BuildFQName(namespace, subsystem, n)
	}
	return &Collector{
		counters: counters,
		lookups:  prometheus.NewDesc(name("lookups_total"), "Total number of lookups.", nil, nil),
		hits:     prometheus.NewDesc(name("hits_total"), "Total number of cache hits.", nil, nil),
		misses:   prometheus.NewDesc(name("misses_total"), "Total number of cache misses.", nil, nil),
		ratio:    prometheus.NewDesc(name("hit_ratio"), "Hits divided by lookups; 0 before the first lookup.", nil, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.lookups
	ch <- c.hits
	ch <- c.misses
	ch <- c.ratio
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.lookups, prometheus.CounterValue, float64(c.counters.NumberOfLookups()))
	ch <- prometheus.MustNewConstMetric(c.hits, prometheus.CounterValue, float64(c.counters.Hits()))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue, float64(c.counters.Misses()))
	ch <- prometheus.MustNewConstMetric(c.ratio, prometheus.GaugeValue, c.counters.HitRatio())
}
