package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle. The cache will call these methods whenever something happens.

The engine keeps its own lookup/hit/miss counters regardless of which Metrics
implementation is configured. Metrics exists so hosts can forward the same
events to an external system.
*/
type Metrics interface {

	// Hit is called when a lookup finds the key in the cache.
	Hit()

	// Miss is called when a lookup does NOT find the key.
	Miss()

	// Eviction is called when the least recently used record is removed
	// because the cache is full and needs space.
	Eviction()
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

If someone does not care about metrics,
we still want the cache to work without
nil checks on every event.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()      {}
func (NoopMetrics) Miss()     {}
func (NoopMetrics) Eviction() {}
