package cache

import (
	"cmp"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/krisalay/recency-cache/api"
	"github.com/krisalay/recency-cache/eviction"
	"github.com/krisalay/recency-cache/tree"
	"github.com/krisalay/recency-cache/types"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ErrInvalidCapacity is returned when a cache is constructed with a
// capacity below one.
var ErrInvalidCapacity = errors.New("cache capacity must be positive")

var _ api.Cache[string, any] = (*Cache[string, any])(nil)

/*
Cache is a fixed-capacity key/value cache that evicts the least recently
used record.

This struct is the orchestrator that keeps two indexes over the same set of
records in sync:
- tree: ordered by key, answers lookups
- heap: ordered by last access, answers "what do we evict?"

Between operations both indexes hold exactly the same keys and size equals
their cardinality.

A Cache is NOT safe for concurrent use. Callers that share one across
goroutines must hold a lock around every Store, LookUp and Remove call,
because each of them updates both indexes.
*/
type Cache[K any, V any] struct {
	tree *tree.Tree[K, V]
	heap *eviction.Heap[K, V]

	// capacity is the maximum number of records, fixed at construction.
	capacity int

	// size is the number of records currently cached.
	size int

	lookups uint64
	hits    uint64
	misses  uint64

	clock       clock.Clock
	log         *zap.Logger
	metrics     types.Metrics
	fullRebuild bool
}

// New creates a cache for keys with a natural order.
func New[K cmp.Ordered, V any](capacity int, opts ...Option) (*Cache[K, V], error) {
	return NewFunc[K, V](capacity, cmp.Compare[K], opts...)
}

// NewFunc creates a cache whose keys are ordered by compare, which must be a
// consistent total order.
func NewFunc[K any, V any](capacity int, compare func(a, b K) int, opts ...Option) (*Cache[K, V], error) {
	if capacity < 1 {
		return nil, errors.Wrapf(ErrInvalidCapacity, "got %d", capacity)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Cache[K, V]{
		tree:        tree.NewFunc[K, V](compare),
		heap:        eviction.NewHeap[K, V](capacity),
		capacity:    capacity,
		clock:       o.clock,
		log:         o.logger,
		metrics:     o.metrics,
		fullRebuild: o.fullRebuild,
	}, nil
}

/*
Store puts a key/value pair into the cache.

- If the key is already cached its value is replaced in place and the record
  counts as accessed now. Nothing is evicted.
- Else if the cache is full, the least recently used record is evicted from
  both indexes first.
- The new record is inserted into both indexes with last access = now.

Store never touches the lookup, hit or miss counters.
*/
func (c *Cache[K, V]) Store(key K, value V) {
	if rec, ok := c.tree.Find(key); ok {
		rec.SetValue(value)
		rec.Touch(c.clock.Now())
		c.refresh(rec)
		return
	}

	if c.size >= c.capacity {
		c.evict()
	}

	rec := types.NewRecord(key, value, c.clock.Now())
	c.tree.Insert(rec)
	c.heap.Insert(rec)
	c.size++
}

/*
LookUp returns the value cached under key.

On a hit the record's last access moves to now and the recency index is
brought up to date. On a miss nothing but the counters change.
*/
func (c *Cache[K, V]) LookUp(key K) (V, bool) {
	c.lookups++

	rec, ok := c.tree.Find(key)
	if !ok {
		c.misses++
		c.metrics.Miss()
		var zero V
		return zero, false
	}

	c.hits++
	c.metrics.Hit()

	rec.Touch(c.clock.Now())
	c.refresh(rec)

	return rec.Value(), true
}

// Remove deletes key from the cache and reports whether it was cached. It
// does not count as a lookup.
func (c *Cache[K, V]) Remove(key K) bool {
	rec, ok := c.tree.Find(key)
	if !ok {
		return false
	}

	c.tree.Remove(key)
	if !c.heap.Remove(rec) {
		panic(errors.AssertionFailedf("record missing from recency index"))
	}
	c.size--
	return true
}

// Contains reports whether key is cached without counting a lookup or
// touching the record.
func (c *Cache[K, V]) Contains(key K) bool {
	_, ok := c.tree.Find(key)
	return ok
}

// Keys returns the cached keys in ascending order.
func (c *Cache[K, V]) Keys() []K {
	return lo.Map(slices.Collect(c.tree.All()), func(r *types.Record[K, V], _ int) K {
		return r.Key()
	})
}

// Len returns how many records are cached.
func (c *Cache[K, V]) Len() int {
	return c.size
}

// Capacity returns the maximum number of records.
func (c *Cache[K, V]) Capacity() int {
	return c.capacity
}

func (c *Cache[K, V]) NumberOfLookups() uint64 {
	return c.lookups
}

func (c *Cache[K, V]) Hits() uint64 {
	return c.hits
}

func (c *Cache[K, V]) Misses() uint64 {
	return c.misses
}

// HitRatio returns hits/lookups, or 0 when no lookup has happened yet.
func (c *Cache[K, V]) HitRatio() float64 {
	if c.lookups == 0 {
		return 0
	}
	return float64(c.hits) / float64(c.lookups)
}

// evict removes the least recently used record from both indexes.
func (c *Cache[K, V]) evict() {
	oldest, ok := c.heap.ExtractMin()
	if !ok {
		panic(errors.AssertionFailedf("recency index empty with %d records cached", c.size))
	}
	if !c.tree.Remove(oldest.Key()) {
		panic(errors.AssertionFailedf("evicted record missing from ordered index"))
	}
	c.size--
	c.metrics.Eviction()

	c.log.Debug("evicted least recently used record",
		zap.Any("key", oldest.Key()),
		zap.Time("lastAccess", oldest.LastAccess()))
}

// refresh restores heap order after rec was touched.
func (c *Cache[K, V]) refresh(rec *types.Record[K, V]) {
	if !c.fullRebuild {
		c.heap.Fix(rec)
		return
	}
	c.rebuild(rec)
}

/*
rebuild refills the recency index from an in-order walk of the ordered index.

Records keep their relative tie-break order: the walked records are
re-inserted by their old sequence numbers and touched goes in last, so with
equal timestamps eviction matches the incremental mode.
*/
func (c *Cache[K, V]) rebuild(touched *types.Record[K, V]) {
	recs := make([]*types.Record[K, V], 0, c.size)
	c.tree.InOrder(func(r *types.Record[K, V]) {
		if r != touched {
			recs = append(recs, r)
		}
	})

	seqs := make(map[*types.Record[K, V]]uint64, len(recs))
	for _, r := range recs {
		seq, ok := c.heap.Seq(r)
		if !ok {
			panic(errors.AssertionFailedf("record missing from recency index"))
		}
		seqs[r] = seq
	}
	slices.SortFunc(recs, func(a, b *types.Record[K, V]) int {
		return cmp.Compare(seqs[a], seqs[b])
	})

	c.heap.Reset()
	for _, r := range recs {
		c.heap.Insert(r)
	}
	c.heap.Insert(touched)

	c.log.Debug("rebuilt recency index", zap.Int("records", c.heap.Len()))
}
