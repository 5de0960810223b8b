package types

import "context"

// Source is the contract between the cache and its backing store.
type Source[K any, V any] interface {

	/*
		Read is called when the cache misses. The key was not found in memory,
		so the caller asks the Source for the authoritative value.

		RETURN VALUES:
		--------------
		- (value, true, nil)  : the key exists in the backing store
		- (zero, false, nil)  : the key exists nowhere (NotFound, not an error)
		- (zero, false, err)  : the store could not be read or a record could
		                        not be parsed. This is fatal to the caller's
		                        workflow and must be propagated.

		Read may scan its whole medium and is not expected to be fast.
	*/
	Read(ctx context.Context, key K) (V, bool, error)
}

// SourceFunc adapts an ordinary function to the Source interface.
type SourceFunc[K any, V any] func(ctx context.Context, key K) (V, bool, error)

func (f SourceFunc[K, V]) Read(ctx context.Context, key K) (V, bool, error) {
	return f(ctx, key)
}
