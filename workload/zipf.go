package workload

import (
	"math/rand"

	"github.com/cockroachdb/errors"
)

// DefaultSkew is the Zipf exponent used when none is given. Larger values
// concentrate requests on fewer keys.
const DefaultSkew = 1.1

/*
Zipf generates n requests over a fixed key universe. The key at index i is
requested with probability proportional to 1/(1+i)^skew, which is the
hot-set shape caches are built for.

The same seed always yields the same sequence.
*/
type Zipf struct {
	keys      []string
	zipf      *rand.Zipf
	remaining int
}

// NewZipf creates a generator over keys. skew must be greater than 1.
func NewZipf(keys []string, n int, seed int64, skew float64) (*Zipf, error) {
	if len(keys) == 0 {
		return nil, errors.New("zipf workload needs at least one key")
	}
	if skew <= 1 {
		return nil, errors.Newf("zipf skew must be > 1, got %v", skew)
	}

	rng := rand.New(rand.NewSource(seed))
	return &Zipf{
		keys:      keys,
		zipf:      rand.NewZipf(rng, skew, 1, uint64(len(keys)-1)),
		remaining: max(n, 0),
	}, nil
}

func (z *Zipf) Next() (string, bool, error) {
	if z.remaining == 0 {
		return "", false, nil
	}
	z.remaining--
	return z.keys[z.zipf.Uint64()], true, nil
}
