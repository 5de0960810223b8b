package api

/*
Cache defines the PUBLIC API of the recency cache.
This is a contract that guarantees certain behaviors, without exposing internals.
The two indexes, the eviction order bookkeeping, and the timestamp source
are hidden behind this interface.

A host process embeds the cache directly; there is no network or file
protocol of its own.
*/
type Cache[K any, V any] interface {

	/*
		Store puts a key/value pair into the cache.

		BEHAVIOR:
		---------
		- If the cache has room, the record is added
		- If the cache is FULL, the least recently used record is evicted
		  first, and only that record
		- If the key is already cached, its value is replaced in place and
		  it becomes the most recently used record

		Store does NOT count as a lookup.
	*/
	Store(key K, value V)

	/*
		LookUp retrieves the value cached under key.

		BEHAVIOR:
		---------
		1. The lookup counter always increases
		2. If the key is cached (hit):
		   - The hit counter increases
		   - The record becomes the most recently used
		   - The value is returned with true
		3. If the key is NOT cached (miss):
		   - The miss counter increases
		   - Nothing else changes
		   - The zero value is returned with false

		A miss is not an error. The caller typically reads the backing store
		and calls Store.
	*/
	LookUp(key K) (V, bool)

	/*
		Remove deletes a key from the cache immediately.

		This operation is idempotent:
		- Removing a non-existing key is safe and reports false
	*/
	Remove(key K) bool

	// Len returns how many records are cached. It never exceeds Capacity.
	Len() int

	// Capacity returns the fixed maximum number of records.
	Capacity() int

	// NumberOfLookups returns how many times LookUp was called.
	NumberOfLookups() uint64

	// Hits returns how many lookups found their key.
	Hits() uint64

	// Misses returns how many lookups did not find their key.
	// Hits() + Misses() == NumberOfLookups() at all times.
	Misses() uint64

	/*
		HitRatio returns Hits() / NumberOfLookups().

		With zero lookups the ratio is defined as 0, never NaN.
	*/
	HitRatio() float64
}

/*
Counters is the read-only view a metrics consumer needs after a run.
It never feeds back into the cache.
*/
type Counters interface {
	NumberOfLookups() uint64
	Hits() uint64
	Misses() uint64
	HitRatio() float64
}
