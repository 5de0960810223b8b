package tree

import (
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/krisalay/recency-cache/types"
	"github.com/stretchr/testify/require"
)

func rec(k int) *types.Record[int, string] {
	return types.NewRecord(k, "", time.Unix(0, 0))
}

func keys(tr *Tree[int, string]) []int {
	var out []int
	tr.InOrder(func(r *types.Record[int, string]) {
		out = append(out, r.Key())
	})
	return out
}

// checkStructure walks the whole tree and verifies search order, parent
// links and the node count.
func checkStructure(t *testing.T, tr *Tree[int, string]) {
	t.Helper()

	count := 0
	var walk func(n, parent int32, lo, hi *int)
	walk = func(n, parent int32, lo, hi *int) {
		if n == nilNode {
			return
		}
		count++
		nd := tr.nodes[n]
		require.Equal(t, parent, nd.parent, "parent link of key %d", nd.rec.Key())
		if lo != nil {
			require.Greater(t, nd.rec.Key(), *lo)
		}
		if hi != nil {
			require.Less(t, nd.rec.Key(), *hi)
		}
		k := nd.rec.Key()
		walk(nd.left, n, lo, &k)
		walk(nd.right, n, &k, hi)
	}
	walk(tr.root, nilNode, nil, nil)

	require.Equal(t, tr.Len(), count)
}

//
// ================= INSERT / FIND =================
//

func TestInsertAndFind(t *testing.T) {
	tr := New[int, string]()
	for _, k := range []int{50, 30, 70, 20, 40, 60, 80} {
		require.True(t, tr.Insert(rec(k)))
	}
	checkStructure(t, tr)
	require.Equal(t, 7, tr.Len())

	for _, k := range []int{50, 20, 80} {
		r, ok := tr.Find(k)
		require.True(t, ok)
		require.Equal(t, k, r.Key())

		r2, ok := tr.FindRecursive(k)
		require.True(t, ok)
		require.Same(t, r, r2)
	}

	_, ok := tr.Find(55)
	require.False(t, ok)
	_, ok = tr.FindRecursive(55)
	require.False(t, ok)
}

func TestFindOnEmptyTree(t *testing.T) {
	tr := New[int, string]()
	_, ok := tr.Find(1)
	require.False(t, ok)
	_, ok = tr.FindRecursive(1)
	require.False(t, ok)
	require.Zero(t, tr.Height())
	require.Empty(t, keys(tr))
}

func TestInsertDuplicateKeepsOriginal(t *testing.T) {
	tr := New[int, string]()
	first := types.NewRecord(1, "first", time.Unix(0, 0))
	require.True(t, tr.Insert(first))
	require.False(t, tr.Insert(types.NewRecord(1, "second", time.Unix(0, 0))))
	require.False(t, tr.Insert(nil))

	got, ok := tr.Find(1)
	require.True(t, ok)
	require.Same(t, first, got)
	require.Equal(t, 1, tr.Len())
}

func TestSortedInsertDegenerates(t *testing.T) {
	tr := New[int, string]()
	for k := 0; k < 100; k++ {
		tr.Insert(rec(k))
	}
	require.Equal(t, 100, tr.Height())
	checkStructure(t, tr)

	// Iteration walks parent links, so it copes with a linked-list shape.
	n := 0
	for r := range tr.All() {
		require.Equal(t, n, r.Key())
		n++
	}
	require.Equal(t, 100, n)
}

//
// ================= REMOVE =================
//

func TestRemove(t *testing.T) {
	tests := []struct {
		name   string
		remove int
		want   []int
	}{
		{"leaf", 20, []int{30, 40, 50, 60, 70, 80}},
		{"one child", 60, []int{20, 30, 40, 50, 65, 70, 80}},
		{"two children", 30, []int{20, 40, 50, 60, 65, 70, 80}},
		{"root with two children", 50, []int{20, 30, 40, 60, 65, 70, 80}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := New[int, string]()
			for _, k := range []int{50, 30, 70, 20, 40, 60, 80, 65} {
				tr.Insert(rec(k))
			}
			if tc.remove == 20 {
				tr.Remove(65)
			}

			require.True(t, tr.Remove(tc.remove))
			checkStructure(t, tr)
			require.Equal(t, tc.want, keys(tr))

			_, ok := tr.Find(tc.remove)
			require.False(t, ok)
		})
	}
}

func TestRemoveTwoChildrenCopiesSuccessorRecord(t *testing.T) {
	tr := New[int, string]()
	for _, k := range []int{50, 30, 70, 60, 80} {
		tr.Insert(rec(k))
	}
	succ, _ := tr.Find(60)

	require.True(t, tr.Remove(50))

	// The root node now carries the successor's record itself.
	require.Same(t, succ, tr.nodes[tr.root].rec)
	checkStructure(t, tr)
}

func TestRemoveOnlyRootEmptiesTree(t *testing.T) {
	tr := New[int, string]()
	tr.Insert(rec(1))
	require.True(t, tr.Remove(1))
	require.Zero(t, tr.Len())
	require.Equal(t, nilNode, tr.root)
	require.Empty(t, keys(tr))
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	tr := New[int, string]()
	for _, k := range []int{2, 1, 3} {
		tr.Insert(rec(k))
	}
	require.True(t, tr.Remove(1))
	before := slices.Clone(tr.nodes)

	require.False(t, tr.Remove(1))
	require.False(t, tr.Remove(42))
	require.Equal(t, before, tr.nodes)
	require.Equal(t, []int{2, 3}, keys(tr))
}

func TestArenaSlotsAreReused(t *testing.T) {
	tr := New[int, string]()
	for k := 0; k < 10; k++ {
		tr.Insert(rec(k))
	}
	for k := 0; k < 5; k++ {
		tr.Remove(k)
	}
	for k := 10; k < 15; k++ {
		tr.Insert(rec(k))
	}
	require.Len(t, tr.nodes, 10)
	checkStructure(t, tr)
}

//
// ================= ORDER =================
//

func TestRandomInsertRemoveKeepsOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tr := New[int, string]()
	present := map[int]bool{}

	for i := 0; i < 5000; i++ {
		k := rng.Intn(300)
		if rng.Intn(3) == 0 {
			require.Equal(t, present[k], tr.Remove(k))
			delete(present, k)
		} else {
			require.Equal(t, !present[k], tr.Insert(rec(k)))
			present[k] = true
		}
	}

	checkStructure(t, tr)
	got := keys(tr)
	require.True(t, slices.IsSorted(got))
	require.Len(t, got, len(present))

	var iterated []int
	for r := range tr.All() {
		iterated = append(iterated, r.Key())
	}
	require.Equal(t, got, iterated)
}

func TestAllStopsEarly(t *testing.T) {
	tr := New[int, string]()
	for _, k := range []int{5, 3, 8, 1, 4} {
		tr.Insert(rec(k))
	}
	var seen []int
	for r := range tr.All() {
		seen = append(seen, r.Key())
		if len(seen) == 2 {
			break
		}
	}
	require.Equal(t, []int{1, 3}, seen)
}

func TestNewFuncUsesComparator(t *testing.T) {
	desc := func(a, b int) int { return b - a }
	tr := NewFunc[int, string](desc)
	for _, k := range []int{2, 9, 4} {
		tr.Insert(rec(k))
	}
	require.Equal(t, []int{9, 4, 2}, keys(tr))
}
