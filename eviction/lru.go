// This file implements LRU eviction on top of a binary min-heap.

package eviction

import "github.com/krisalay/recency-cache/types"

// slot is one heap position. seq breaks ties between records whose
// timestamps compare equal: the record inserted or re-sifted earlier is
// considered older.
type slot[K any, V any] struct {
	rec *types.Record[K, V]
	seq uint64
}

/*
Heap is a 1-based binary min-heap of records ordered by last access.

For every i in [2, n] the record at i is not more recent than the record at
i/2, so the root (i = 1) is always the least recently used record tracked.

Unlike a plain priority queue the heap remembers the slot of every record.
That lets a record whose timestamp moved forward be re-sifted in place
(Fix) instead of rebuilding the whole heap.
*/
type Heap[K any, V any] struct {
	// items stores records at indices 1..n; index 0 is unused.
	items []slot[K, V]
	n     int

	// pos maps a tracked record to its index in items.
	pos map[*types.Record[K, V]]int

	// seq is the next tie-break sequence number.
	seq uint64
}

// NewHeap creates an empty heap with room for capacity records before it
// has to grow.
func NewHeap[K any, V any](capacity int) *Heap[K, V] {
	return &Heap[K, V]{
		items: make([]slot[K, V], max(capacity, 0)+1),
		pos:   make(map[*types.Record[K, V]]int, max(capacity, 0)),
	}
}

// Len returns how many records are tracked.
func (h *Heap[K, V]) Len() int {
	return h.n
}

func (h *Heap[K, V]) contains(rec *types.Record[K, V]) bool {
	_, ok := h.pos[rec]
	return ok
}

// Seq returns the tie-break sequence number of rec. Among records with equal
// timestamps the one with the lower number is extracted first.
func (h *Heap[K, V]) Seq(rec *types.Record[K, V]) (uint64, bool) {
	i, ok := h.pos[rec]
	if !ok {
		return 0, false
	}
	return h.items[i].seq, true
}

// Reset drops every record while keeping the allocated array. Sequence
// numbers keep counting up from where they were.
func (h *Heap[K, V]) Reset() {
	clear(h.items)
	clear(h.pos)
	h.n = 0
}

/*
Insert appends rec and swims it up while it is older than its parent.

The backing array doubles when full. Inserting a record that is already
tracked does nothing and reports false.
*/
func (h *Heap[K, V]) Insert(rec *types.Record[K, V]) bool {
	if rec == nil || h.contains(rec) {
		return false
	}
	if h.n >= len(h.items)-1 {
		h.resize(2 * len(h.items))
	}

	h.n++
	h.items[h.n] = slot[K, V]{rec: rec, seq: h.nextSeq()}
	h.pos[rec] = h.n
	h.swim(h.n)
	return true
}

// PeekMin returns the least recently used record without removing it.
func (h *Heap[K, V]) PeekMin() (*types.Record[K, V], bool) {
	if h.n == 0 {
		return nil, false
	}
	return h.items[1].rec, true
}

/*
ExtractMin removes and returns the least recently used record.

The last element moves into the root slot and sinks, at each level
swapping with the older of its two children, until heap order holds.
*/
func (h *Heap[K, V]) ExtractMin() (*types.Record[K, V], bool) {
	if h.n == 0 {
		return nil, false
	}
	oldest := h.items[1].rec
	h.removeAt(1)
	return oldest, true
}

// Fix restores heap order after rec's timestamp changed. The record takes a
// fresh sequence number, so among equal timestamps it becomes the newest.
func (h *Heap[K, V]) Fix(rec *types.Record[K, V]) bool {
	i, ok := h.pos[rec]
	if !ok {
		return false
	}
	h.items[i].seq = h.nextSeq()
	if !h.swim(i) {
		h.sink(i)
	}
	return true
}

// Remove stops tracking rec and reports whether it was tracked.
func (h *Heap[K, V]) Remove(rec *types.Record[K, V]) bool {
	i, ok := h.pos[rec]
	if !ok {
		return false
	}
	h.removeAt(i)
	return true
}

// Records calls visit for every tracked record in heap array order.
func (h *Heap[K, V]) Records(visit func(*types.Record[K, V])) {
	for i := 1; i <= h.n; i++ {
		visit(h.items[i].rec)
	}
}

func (h *Heap[K, V]) removeAt(i int) {
	rec := h.items[i].rec
	last := h.n

	h.exch(i, last)
	h.items[last] = slot[K, V]{}
	h.n--
	delete(h.pos, rec)

	if i <= h.n && !h.swim(i) {
		h.sink(i)
	}
}

func (h *Heap[K, V]) nextSeq() uint64 {
	h.seq++
	return h.seq
}

// swim moves the element at k up and reports whether it moved.
func (h *Heap[K, V]) swim(k int) bool {
	moved := false
	for k > 1 && h.less(k, k/2) {
		h.exch(k, k/2)
		k /= 2
		moved = true
	}
	return moved
}

func (h *Heap[K, V]) sink(k int) {
	for 2*k <= h.n {
		j := 2 * k
		if j < h.n && h.less(j+1, j) {
			j++
		}
		if !h.less(j, k) {
			break
		}
		h.exch(k, j)
		k = j
	}
}

func (h *Heap[K, V]) less(i, j int) bool {
	a, b := h.items[i], h.items[j]
	if a.rec.Older(b.rec) {
		return true
	}
	if b.rec.Older(a.rec) {
		return false
	}
	return a.seq < b.seq
}

func (h *Heap[K, V]) exch(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	if h.items[i].rec != nil {
		h.pos[h.items[i].rec] = i
	}
	if h.items[j].rec != nil {
		h.pos[h.items[j].rec] = j
	}
}

func (h *Heap[K, V]) resize(capacity int) {
	items := make([]slot[K, V], max(capacity, 2))
	copy(items, h.items[:h.n+1])
	h.items = items
}
