package engine

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/krisalay/recency-cache/api"
	"github.com/krisalay/recency-cache/types"
	"github.com/krisalay/recency-cache/workload"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

/*
ReadThrough is the workflow that sits in front of the cache.

It decides:
- When the backing store is consulted (only on a cache miss)
- What gets stored after a miss (only values the store actually has)
- What happens to store errors (they are returned, never swallowed)

It does NOT:
- Decide eviction order
- Keep its own hit/miss counters (the cache does)
- Hold its lock while the backing store is read

A ReadThrough is safe for concurrent use. Every LookUp and Store on the
wrapped cache happens under one mutex, and concurrent misses on the same key
share a single backing store read. The wrapped cache must not be used
directly while Get or Run are running.
*/
type ReadThrough[V any] struct {

	// Cache is the recency cache being driven.
	Cache api.Cache[string, V]

	// Source is how the engine talks to the outside world when the cache
	// does NOT have the data.
	Source types.Source[string, V]

	log *zap.Logger

	// mu guards every call into Cache.
	mu sync.Mutex

	// sf collapses loads of the same key issued while one is in flight.
	sf singleflight.Group
}

// NewReadThrough creates a ReadThrough. A nil logger disables logging.
func NewReadThrough[V any](c api.Cache[string, V], src types.Source[string, V], log *zap.Logger) *ReadThrough[V] {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReadThrough[V]{
		Cache:  c,
		Source: src,
		log:    log,
	}
}

/*
Get returns the value for key.

1. Cache hit: return the cached value
2. Cache miss: read the Source
   - found: store it in the cache and return it
   - not found: return false, cache unchanged
   - error: return the error, cache unchanged

Callers that miss on a key while a read of it is in flight wait for that
read and share its result, including its error. The shared read runs with
the context of the caller that started it.
*/
func (e *ReadThrough[V]) Get(ctx context.Context, key string) (V, bool, error) {
	e.mu.Lock()
	v, ok := e.Cache.LookUp(key)
	e.mu.Unlock()
	if ok {
		return v, true, nil
	}

	v, found, err := e.load(ctx, key)
	if err != nil {
		var zero V
		return zero, false, errors.Wrapf(err, "load %q", key)
	}
	if !found {
		e.log.Warn("key not found in backing store", zap.String("key", key))
		return v, false, nil
	}
	return v, true, nil
}

type loaded[V any] struct {
	v     V
	found bool
}

// load reads key from the Source and stores what it finds. The store
// happens inside the shared call so a collapsed group stores once.
func (e *ReadThrough[V]) load(ctx context.Context, key string) (V, bool, error) {
	res, err, _ := e.sf.Do(key, func() (any, error) {
		v, found, err := e.Source.Read(ctx, key)
		if err == nil && found {
			e.mu.Lock()
			e.Cache.Store(key, v)
			e.mu.Unlock()
		}
		return loaded[V]{v, found}, err
	})
	if err != nil {
		var zero V
		return zero, false, err
	}
	l := res.(loaded[V])
	return l.v, l.found, nil
}

// Stats returns the wrapped cache's counters. It is safe to call while Get
// is running on other goroutines.
func (e *ReadThrough[V]) Stats() Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Report{
		Lookups:  e.Cache.NumberOfLookups(),
		Hits:     e.Cache.Hits(),
		Misses:   e.Cache.Misses(),
		HitRatio: e.Cache.HitRatio(),
	}
}

// Report summarizes a run.
type Report struct {
	Lookups  uint64
	Hits     uint64
	Misses   uint64
	HitRatio float64

	// Missing lists requested keys the backing store did not have.
	Missing []string

	Duration time.Duration
}

/*
Run drives every request from src through Get and reports the cache's
counters afterwards.

The run stops at the first error from the request source or the backing
store, or when ctx is cancelled.
*/
func (e *ReadThrough[V]) Run(ctx context.Context, src workload.Source) (Report, error) {
	var rep Report
	start := time.Now()

	for {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		key, ok, err := src.Next()
		if err != nil {
			return rep, errors.Wrap(err, "next request")
		}
		if !ok {
			break
		}

		if _, found, err := e.Get(ctx, key); err != nil {
			return rep, err
		} else if !found {
			rep.Missing = append(rep.Missing, key)
		}
	}

	stats := e.Stats()
	stats.Missing = rep.Missing
	stats.Duration = time.Since(start)
	rep = stats

	e.log.Info("run complete",
		zap.Uint64("lookups", rep.Lookups),
		zap.Uint64("hits", rep.Hits),
		zap.Uint64("misses", rep.Misses),
		zap.Float64("hitRatio", rep.HitRatio),
		zap.Duration("duration", rep.Duration))

	return rep, nil
}
