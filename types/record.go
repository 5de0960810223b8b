package types

import "time"

/*
Record is the unit the cache stores: a key, its value, and the last time the
key was read or written.

Identity is the key alone. Two records with equal keys are the same cache
entry regardless of value or timestamp.

lastAccess is only ever read for ordering. The recency index relies on it
never moving backwards for a record it is tracking.
*/
type Record[K any, V any] struct {
	key        K
	value      V
	lastAccess time.Time
}

// NewRecord creates a record whose last access is now.
func NewRecord[K any, V any](key K, value V, now time.Time) *Record[K, V] {
	return &Record[K, V]{
		key:        key,
		value:      value,
		lastAccess: now,
	}
}

func (r *Record[K, V]) Key() K {
	return r.key
}

func (r *Record[K, V]) Value() V {
	return r.value
}

// LastAccess returns the time the record was created or last touched.
func (r *Record[K, V]) LastAccess() time.Time {
	return r.lastAccess
}

// Touch marks the record as accessed at now. A clock that steps backwards
// does not move the timestamp backwards.
func (r *Record[K, V]) Touch(now time.Time) {
	if now.After(r.lastAccess) {
		r.lastAccess = now
	}
}

// SetValue replaces the value in place. Used when a key that is already
// cached is stored again.
func (r *Record[K, V]) SetValue(v V) {
	r.value = v
}

// Older reports whether r was accessed strictly before other.
func (r *Record[K, V]) Older(other *Record[K, V]) bool {
	return r.lastAccess.Before(other.lastAccess)
}
