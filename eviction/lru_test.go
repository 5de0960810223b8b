package eviction

import (
	"math/rand"
	"testing"
	"time"

	"github.com/krisalay/recency-cache/types"
	"github.com/stretchr/testify/require"
)

var epoch = time.Unix(1_700_000_000, 0)

func at(key string, sec int) *types.Record[string, int] {
	return types.NewRecord(key, 0, epoch.Add(time.Duration(sec)*time.Second))
}

// checkHeap verifies heap order and that every slot index is remembered
// correctly.
func checkHeap(t *testing.T, h *Heap[string, int]) {
	t.Helper()
	for i := 2; i <= h.n; i++ {
		require.False(t, h.less(i, i/2), "slot %d is older than its parent", i)
	}
	require.Len(t, h.pos, h.n)
	for i := 1; i <= h.n; i++ {
		require.Equal(t, i, h.pos[h.items[i].rec])
	}
}

func drain(h *Heap[string, int]) []string {
	var out []string
	for {
		r, ok := h.ExtractMin()
		if !ok {
			return out
		}
		out = append(out, r.Key())
	}
}

//
// ================= BASIC OPERATIONS =================
//

func TestExtractInTimestampOrder(t *testing.T) {
	h := NewHeap[string, int](4)
	h.Insert(at("c", 30))
	h.Insert(at("a", 10))
	h.Insert(at("d", 40))
	h.Insert(at("b", 20))
	checkHeap(t, h)

	oldest, ok := h.PeekMin()
	require.True(t, ok)
	require.Equal(t, "a", oldest.Key())
	require.Equal(t, 4, h.Len())

	require.Equal(t, []string{"a", "b", "c", "d"}, drain(h))
	require.Zero(t, h.Len())
}

func TestEmptyHeap(t *testing.T) {
	h := NewHeap[string, int](0)
	_, ok := h.PeekMin()
	require.False(t, ok)
	_, ok = h.ExtractMin()
	require.False(t, ok)
}

func TestInsertGrowsBackingArray(t *testing.T) {
	h := NewHeap[string, int](1)
	for i := 0; i < 100; i++ {
		require.True(t, h.Insert(at(string(rune('A'+i%26))+string(rune('a'+i/26)), 100-i)))
	}
	checkHeap(t, h)
	require.Equal(t, 100, h.Len())
	require.GreaterOrEqual(t, len(h.items), 101)
}

func TestInsertSameRecordTwice(t *testing.T) {
	h := NewHeap[string, int](2)
	r := at("a", 1)
	require.True(t, h.Insert(r))
	require.False(t, h.Insert(r))
	require.False(t, h.Insert(nil))
	require.Equal(t, 1, h.Len())
}

//
// ================= TIES =================
//

func TestEqualTimestampsExtractInInsertionOrder(t *testing.T) {
	h := NewHeap[string, int](8)
	for _, k := range []string{"q", "w", "e", "r", "t", "y"} {
		h.Insert(at(k, 5))
	}
	require.Equal(t, []string{"q", "w", "e", "r", "t", "y"}, drain(h))
}

//
// ================= FIX / REMOVE =================
//

func TestFixAfterTouch(t *testing.T) {
	h := NewHeap[string, int](4)
	a, b, c := at("a", 1), at("b", 2), at("c", 3)
	h.Insert(a)
	h.Insert(b)
	h.Insert(c)

	a.Touch(epoch.Add(10 * time.Second))
	require.True(t, h.Fix(a))
	checkHeap(t, h)

	require.Equal(t, []string{"b", "c", "a"}, drain(h))
}

func TestFixWithTiedTimestampMakesRecordNewest(t *testing.T) {
	h := NewHeap[string, int](4)
	a, b := at("a", 1), at("b", 1)
	h.Insert(a)
	h.Insert(b)

	// Same timestamp; the re-sifted record is ranked after b.
	require.True(t, h.Fix(a))
	require.Equal(t, []string{"b", "a"}, drain(h))
}

func TestSeqFollowsInsertAndFix(t *testing.T) {
	h := NewHeap[string, int](4)
	a, b := at("a", 1), at("b", 1)
	h.Insert(a)
	h.Insert(b)

	sa, ok := h.Seq(a)
	require.True(t, ok)
	sb, _ := h.Seq(b)
	require.Less(t, sa, sb)

	h.Fix(a)
	sa, _ = h.Seq(a)
	require.Greater(t, sa, sb)

	_, ok = h.Seq(at("x", 1))
	require.False(t, ok)

	// Reset keeps counting so re-inserted records never reuse a number.
	h.Reset()
	h.Insert(b)
	sb2, _ := h.Seq(b)
	require.Greater(t, sb2, sa)
}

func TestFixUnknownRecord(t *testing.T) {
	h := NewHeap[string, int](1)
	require.False(t, h.Fix(at("x", 1)))
}

func TestRemoveArbitraryRecord(t *testing.T) {
	h := NewHeap[string, int](8)
	recs := []*types.Record[string, int]{at("a", 1), at("b", 2), at("c", 3), at("d", 4), at("e", 5)}
	for _, r := range recs {
		h.Insert(r)
	}

	require.True(t, h.Remove(recs[2]))
	require.False(t, h.Remove(recs[2]))
	require.False(t, h.contains(recs[2]))
	checkHeap(t, h)

	require.Equal(t, []string{"a", "b", "d", "e"}, drain(h))
}

func TestReset(t *testing.T) {
	h := NewHeap[string, int](2)
	r := at("a", 1)
	h.Insert(r)
	h.Reset()
	require.Zero(t, h.Len())
	require.False(t, h.contains(r))
	require.True(t, h.Insert(r))
}

func TestRandomOperationsKeepHeapOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	h := NewHeap[string, int](4)
	var live []*types.Record[string, int]
	now := 0

	for i := 0; i < 3000; i++ {
		now++
		switch op := rng.Intn(4); {
		case op == 0 || len(live) == 0:
			r := at("k", rng.Intn(now+1))
			h.Insert(r)
			live = append(live, r)
		case op == 1:
			r := live[rng.Intn(len(live))]
			r.Touch(epoch.Add(time.Duration(now) * time.Second))
			h.Fix(r)
		case op == 2:
			j := rng.Intn(len(live))
			require.True(t, h.Remove(live[j]))
			live = append(live[:j], live[j+1:]...)
		default:
			oldest, ok := h.ExtractMin()
			require.True(t, ok)
			for _, r := range live {
				require.False(t, r.Older(oldest))
			}
			for j, r := range live {
				if r == oldest {
					live = append(live[:j], live[j+1:]...)
					break
				}
			}
		}
		require.Equal(t, len(live), h.Len())
	}
	checkHeap(t, h)
}
