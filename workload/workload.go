/*
Package workload produces the stream of keys a cache run looks up.

A Source is lazy, finite and forward-only. Next returns false once the
stream is exhausted; a source is not restartable.
*/
package workload

import (
	"bufio"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// ErrMalformedRequest is returned when a request line cannot be parsed.
var ErrMalformedRequest = errors.New("malformed request")

// Source is the request stream consumed by a run.
type Source interface {

	// Next returns the next key. ok is false at the end of the stream. An
	// error is fatal to the run.
	Next() (key string, ok bool, err error)
}

// Slice serves keys from memory.
type Slice struct {
	keys []string
	next int
}

func NewSlice(keys ...string) *Slice {
	return &Slice{keys: keys}
}

func (s *Slice) Next() (string, bool, error) {
	if s.next >= len(s.keys) {
		return "", false, nil
	}
	k := s.keys[s.next]
	s.next++
	return k, true, nil
}

// SyntheticKeys returns n keys named key-0 ... key-(n-1).
func SyntheticKeys(n int) []string {
	return lo.Times(n, func(i int) string {
		return fmt.Sprintf("key-%d", i)
	})
}

// Collect drains src into a slice.
func Collect(src Source) ([]string, error) {
	var keys []string
	for {
		k, ok, err := src.Next()
		if err != nil {
			return keys, err
		}
		if !ok {
			return keys, nil
		}
		keys = append(keys, k)
	}
}

// WriteRequests drains src into w, one key per line, and returns how many
// keys were written.
func WriteRequests(w io.Writer, src Source) (int, error) {
	bw := bufio.NewWriter(w)
	n := 0
	for {
		k, ok, err := src.Next()
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		if _, err := fmt.Fprintln(bw, k); err != nil {
			return n, errors.Wrap(err, "write request")
		}
		n++
	}
	return n, errors.Wrap(bw.Flush(), "flush requests")
}
