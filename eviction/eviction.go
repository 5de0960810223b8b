/*
Package eviction decides what the cache removes when it runs out of space.

The only policy is strict recency: evict the record accessed least recently
among those currently cached. Candidates are kept in a binary min-heap
ordered by last-access time, so the eviction candidate is always at the
root.

The heap does not own records. The cache inserts every record it stores,
calls Fix after touching one, and calls ExtractMin when it needs space.
*/
package eviction
