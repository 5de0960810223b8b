/*
Package tree implements the ordered index of the cache: an unbalanced binary
search tree that maps keys to records.

Nodes live in an arena (a slice) and refer to each other by index. Child
indices express ownership top-down. The parent index is a back-reference
used only for upward traversal (successor search and iteration), never for
insertion ordering.

There is no rebalancing. Inserting keys in sorted order produces a tree of
depth n, and every operation degrades to O(n).
*/
package tree

import (
	"cmp"
	"iter"

	"github.com/krisalay/recency-cache/types"
)

// nilNode marks an absent parent or child link.
const nilNode int32 = -1

type node[K any, V any] struct {
	rec    *types.Record[K, V]
	parent int32
	left   int32
	right  int32
}

// Tree is the key-ordered index. The zero value is not usable; use New or
// NewFunc.
type Tree[K any, V any] struct {
	// nodes is the arena. Slots listed in free are unused.
	nodes []node[K, V]
	free  []int32

	root int32
	size int

	compare func(a, b K) int
}

// New creates an empty tree ordered by the natural order of K.
func New[K cmp.Ordered, V any]() *Tree[K, V] {
	return NewFunc[K, V](cmp.Compare[K])
}

// NewFunc creates an empty tree ordered by compare, which must be a
// consistent total order returning <0, 0 or >0.
func NewFunc[K any, V any](compare func(a, b K) int) *Tree[K, V] {
	return &Tree[K, V]{
		root:    nilNode,
		compare: compare,
	}
}

// Len returns the number of records in the tree.
func (t *Tree[K, V]) Len() int {
	return t.size
}

/*
Insert adds rec as a new leaf.

It descends from the root comparing keys and attaches the record at the
first empty slot. If a record with the same key is already present the tree
is left unchanged and Insert reports false. Replacing an existing entry is
the caller's decision, not the tree's.
*/
func (t *Tree[K, V]) Insert(rec *types.Record[K, V]) bool {
	if rec == nil {
		return false
	}

	parent, cur := nilNode, t.root
	c := 0
	for cur != nilNode {
		c = t.compare(rec.Key(), t.nodes[cur].rec.Key())
		if c == 0 {
			return false
		}
		parent = cur
		if c < 0 {
			cur = t.nodes[cur].left
		} else {
			cur = t.nodes[cur].right
		}
	}

	n := t.alloc(rec, parent)
	switch {
	case parent == nilNode:
		t.root = n
	case c < 0:
		t.nodes[parent].left = n
	default:
		t.nodes[parent].right = n
	}
	t.size++
	return true
}

// Find looks key up with an iterative descent.
func (t *Tree[K, V]) Find(key K) (*types.Record[K, V], bool) {
	n := t.find(key)
	if n == nilNode {
		return nil, false
	}
	return t.nodes[n].rec, true
}

// FindRecursive is the recursive equivalent of Find.
func (t *Tree[K, V]) FindRecursive(key K) (*types.Record[K, V], bool) {
	return t.findFrom(t.root, key)
}

func (t *Tree[K, V]) findFrom(n int32, key K) (*types.Record[K, V], bool) {
	if n == nilNode {
		return nil, false
	}
	c := t.compare(key, t.nodes[n].rec.Key())
	if c == 0 {
		return t.nodes[n].rec, true
	}
	if c < 0 {
		return t.findFrom(t.nodes[n].left, key)
	}
	return t.findFrom(t.nodes[n].right, key)
}

func (t *Tree[K, V]) find(key K) int32 {
	p := t.root
	for p != nilNode {
		c := t.compare(key, t.nodes[p].rec.Key())
		if c == 0 {
			return p
		}
		if c < 0 {
			p = t.nodes[p].left
		} else {
			p = t.nodes[p].right
		}
	}
	return nilNode
}

/*
Remove deletes the record stored under key and reports whether it was
present. Removing an absent key is a no-op.

A node with two children is not unlinked directly: the record of its
in-order successor is copied into it and the successor node, which has at
most one child, is unlinked instead.
*/
func (t *Tree[K, V]) Remove(key K) bool {
	n := t.find(key)
	if n == nilNode {
		return false
	}
	t.unlink(n)
	return true
}

func (t *Tree[K, V]) unlink(n int32) {
	if t.nodes[n].left != nilNode && t.nodes[n].right != nilNode {
		s := t.successor(n)
		t.nodes[n].rec = t.nodes[s].rec
		n = s
	}

	parent := t.nodes[n].parent
	child := t.nodes[n].left
	if child == nilNode {
		child = t.nodes[n].right
	}

	switch {
	case parent == nilNode:
		t.root = child
	case t.nodes[parent].left == n:
		t.nodes[parent].left = child
	default:
		t.nodes[parent].right = child
	}
	if child != nilNode {
		t.nodes[child].parent = parent
	}

	t.release(n)
	t.size--
}

// successor returns the in-order successor of n: the leftmost node of its
// right subtree, or else the nearest ancestor reached from a left subtree.
func (t *Tree[K, V]) successor(n int32) int32 {
	if r := t.nodes[n].right; r != nilNode {
		return t.leftmost(r)
	}
	p, ch := t.nodes[n].parent, n
	for p != nilNode && ch == t.nodes[p].right {
		ch = p
		p = t.nodes[p].parent
	}
	return p
}

func (t *Tree[K, V]) leftmost(n int32) int32 {
	for t.nodes[n].left != nilNode {
		n = t.nodes[n].left
	}
	return n
}

// InOrder calls visit for every record in ascending key order. The whole
// tree is traversed; visit must not modify the tree.
func (t *Tree[K, V]) InOrder(visit func(*types.Record[K, V])) {
	t.inOrder(t.root, visit)
}

func (t *Tree[K, V]) inOrder(n int32, visit func(*types.Record[K, V])) {
	if n == nilNode {
		return
	}
	t.inOrder(t.nodes[n].left, visit)
	visit(t.nodes[n].rec)
	t.inOrder(t.nodes[n].right, visit)
}

// All returns an iterator over the records in ascending key order. It walks
// parent links, so it needs no stack regardless of the tree's depth.
func (t *Tree[K, V]) All() iter.Seq[*types.Record[K, V]] {
	return func(yield func(*types.Record[K, V]) bool) {
		if t.root == nilNode {
			return
		}
		for n := t.leftmost(t.root); n != nilNode; n = t.successor(n) {
			if !yield(t.nodes[n].rec) {
				return
			}
		}
	}
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (t *Tree[K, V]) Height() int {
	return t.height(t.root)
}

func (t *Tree[K, V]) height(n int32) int {
	if n == nilNode {
		return 0
	}
	return 1 + max(t.height(t.nodes[n].left), t.height(t.nodes[n].right))
}

func (t *Tree[K, V]) alloc(rec *types.Record[K, V], parent int32) int32 {
	nd := node[K, V]{rec: rec, parent: parent, left: nilNode, right: nilNode}
	if k := len(t.free); k > 0 {
		i := t.free[k-1]
		t.free = t.free[:k-1]
		t.nodes[i] = nd
		return i
	}
	t.nodes = append(t.nodes, nd)
	return int32(len(t.nodes) - 1)
}

func (t *Tree[K, V]) release(n int32) {
	t.nodes[n] = node[K, V]{parent: nilNode, left: nilNode, right: nilNode}
	t.free = append(t.free, n)
}
