package datasource

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/krisalay/recency-cache/types"
	"golang.org/x/sync/singleflight"
)

var _ types.Source[string, string] = (*File)(nil)

/*
File reads values straight from the data file.

Every Read scans the whole file from the top. That is slow on purpose: it
models an authoritative store that is expensive enough to be worth caching.
*/
type File struct {
	path string

	// sf makes concurrent reads of the same key share a single scan.
	sf singleflight.Group
}

type readResult struct {
	value string
	found bool
}

func NewFile(path string) *File {
	return &File{path: path}
}

// Read returns the value of the last line whose key matches.
func (f *File) Read(ctx context.Context, key string) (string, bool, error) {
	v, err, _ := f.sf.Do(key, func() (any, error) {
		return f.scan(ctx, key)
	})
	if err != nil {
		return "", false, err
	}
	res := v.(readResult)
	return res.value, res.found, nil
}

func (f *File) scan(ctx context.Context, key string) (readResult, error) {
	fh, err := openData(f.path)
	if err != nil {
		return readResult{}, err
	}
	defer fh.Close()

	var res readResult
	err = forEachRecord(ctx, fh, func(k, v string) {
		if k == key {
			res = readResult{value: v, found: true}
		}
	})
	if err != nil {
		return readResult{}, errors.Wrapf(err, "scan data file %s", f.path)
	}
	return res, nil
}
