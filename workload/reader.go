package workload

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

/*
Reader reads requests from a workload file: one key per line.

Blank lines are skipped. Surrounding whitespace is trimmed. A key that still
contains whitespace is malformed.
*/
type Reader struct {
	sc     *bufio.Scanner
	closer io.Closer
	line   int
}

// NewReader reads requests from r. Close is a no-op unless r is an
// io.Closer.
func NewReader(r io.Reader) *Reader {
	rd := &Reader{sc: bufio.NewScanner(r)}
	if c, ok := r.(io.Closer); ok {
		rd.closer = c
	}
	return rd
}

// Open reads requests from the file at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open workload file %s", path)
	}
	return NewReader(f), nil
}

func (r *Reader) Next() (string, bool, error) {
	for r.sc.Scan() {
		r.line++
		key := strings.TrimSpace(r.sc.Text())
		if key == "" {
			continue
		}
		if strings.ContainsFunc(key, isSpace) {
			return "", false, errors.Wrapf(ErrMalformedRequest, "line %d: %q", r.line, key)
		}
		return key, true, nil
	}
	if err := r.sc.Err(); err != nil {
		return "", false, errors.Wrap(err, "read workload")
	}
	return "", false, nil
}

func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\v' || r == '\f'
}
