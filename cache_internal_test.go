package cache

import (
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/krisalay/recency-cache/types"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"
)

// requireConsistent checks that both indexes hold the same key set and that
// size matches it.
func requireConsistent(t *testing.T, c *Cache[int, int]) {
	t.Helper()

	var treeKeys, heapKeys []int
	c.tree.InOrder(func(r *types.Record[int, int]) {
		treeKeys = append(treeKeys, r.Key())
	})
	c.heap.Records(func(r *types.Record[int, int]) {
		heapKeys = append(heapKeys, r.Key())
	})
	slices.Sort(heapKeys)

	require.True(t, slices.IsSorted(treeKeys))
	require.Equal(t, treeKeys, heapKeys)
	require.Equal(t, c.size, c.tree.Len())
	require.Equal(t, c.size, c.heap.Len())
	require.LessOrEqual(t, c.size, c.capacity)
}

func TestIndexesStayInSync(t *testing.T) {
	for _, rebuild := range []bool{false, true} {
		clk := clock.NewTestClock(time.Unix(0, 0))
		opts := []Option{WithClock(clk)}
		if rebuild {
			opts = append(opts, WithFullRebuild())
		}
		c, err := New[int, int](16, opts...)
		require.NoError(t, err)

		rng := rand.New(rand.NewSource(3))
		for i := 0; i < 3000; i++ {
			k := rng.Intn(48)
			switch rng.Intn(5) {
			case 0, 1:
				c.Store(k, i)
			case 2, 3:
				c.LookUp(k)
			default:
				c.Remove(k)
			}
			// Leave the clock alone now and then so timestamps tie.
			if rng.Intn(4) != 0 {
				clk.SetTime(clk.Now().Add(time.Microsecond))
			}
			requireConsistent(t, c)
		}
	}
}

func TestHitMakesRecordNewest(t *testing.T) {
	for _, rebuild := range []bool{false, true} {
		clk := clock.NewTestClock(time.Unix(0, 0))
		opts := []Option{WithClock(clk)}
		if rebuild {
			opts = append(opts, WithFullRebuild())
		}
		c, err := New[int, int](8, opts...)
		require.NoError(t, err)

		for k := 0; k < 8; k++ {
			c.Store(k, k)
			clk.SetTime(clk.Now().Add(time.Second))
		}

		for _, k := range []int{0, 5, 3, 0, 7} {
			var newest time.Time
			c.tree.InOrder(func(r *types.Record[int, int]) {
				if r.LastAccess().After(newest) {
					newest = r.LastAccess()
				}
			})
			clk.SetTime(clk.Now().Add(time.Second))

			_, ok := c.LookUp(k)
			require.True(t, ok)

			rec, _ := c.tree.Find(k)
			require.True(t, rec.LastAccess().After(newest))

			root, ok := c.heap.PeekMin()
			require.True(t, ok)
			require.NotEqual(t, k, root.Key())
		}
	}
}

func TestSingleRecordIsItsOwnRoot(t *testing.T) {
	c, err := New[int, int](1)
	require.NoError(t, err)
	c.Store(1, 1)
	c.LookUp(1)

	root, ok := c.heap.PeekMin()
	require.True(t, ok)
	require.Equal(t, 1, root.Key())
}
