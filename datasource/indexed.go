package datasource

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/btree"
	"github.com/krisalay/recency-cache/types"
)

var _ types.Source[string, string] = (*Indexed)(nil)

type indexedItem struct {
	key, value string
}

func lessItem(a, b indexedItem) bool {
	return a.key < b.key
}

// Indexed loads the data file once into an in-memory B-tree and answers
// reads from it. It is the fast counterpart of File.
type Indexed struct {
	tree *btree.BTreeG[indexedItem]
}

// LoadIndexed parses the whole data file at path.
func LoadIndexed(ctx context.Context, path string) (*Indexed, error) {
	fh, err := openData(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	ix := &Indexed{tree: btree.NewG(32, lessItem)}
	err = forEachRecord(ctx, fh, func(k, v string) {
		ix.tree.ReplaceOrInsert(indexedItem{key: k, value: v})
	})
	if err != nil {
		return nil, errors.Wrapf(err, "index data file %s", path)
	}
	return ix, nil
}

func (ix *Indexed) Read(_ context.Context, key string) (string, bool, error) {
	item, ok := ix.tree.Get(indexedItem{key: key})
	if !ok {
		return "", false, nil
	}
	return item.value, true, nil
}

// Len returns how many distinct keys the data file holds.
func (ix *Indexed) Len() int {
	return ix.tree.Len()
}

// Keys returns every key in ascending order.
func (ix *Indexed) Keys() []string {
	keys := make([]string, 0, ix.tree.Len())
	ix.tree.Ascend(func(item indexedItem) bool {
		keys = append(keys, item.key)
		return true
	})
	return keys
}
