/*
Package datasource is the backing store the cache falls back to on a miss.

Data lives in a flat text file, one record per line:

	<key> TAB <value>

Runs of tabs count as one separator and fields after the value are ignored,
so "k\t\tv\tx" holds v under k. Lines are read in order and, if a key
appears more than once, the last line wins. A non-empty line with fewer than
two fields is malformed and fails the read that meets it.
*/
package datasource

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrMalformedRecord is returned when a data line cannot be parsed.
var ErrMalformedRecord = errors.New("malformed data record")

// maxLineSize bounds a single data line.
const maxLineSize = 1 << 20

// forEachRecord parses r and calls fn for every record in file order.
func forEachRecord(ctx context.Context, r io.Reader, fn func(key, value string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}

		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" {
			continue
		}

		fields := strings.FieldsFunc(text, isTab)
		if len(fields) < 2 {
			return errors.Wrapf(ErrMalformedRecord, "line %d: %q", line, text)
		}
		fn(fields[0], fields[1])
	}
	return sc.Err()
}

func isTab(r rune) bool {
	return r == '\t'
}

func validField(s string) bool {
	return s != "" && !strings.ContainsAny(s, "\t\r\n")
}

// WriteRecords writes records in the data file format, one line each, in
// the order given by keys. Keys and values must be non-empty and free of
// tabs and newlines, otherwise they could not be read back.
func WriteRecords(w io.Writer, keys []string, values map[string]string) error {
	bw := bufio.NewWriter(w)
	for _, k := range keys {
		if !validField(k) {
			return errors.Wrapf(ErrMalformedRecord, "key %q", k)
		}
		if !validField(values[k]) {
			return errors.Wrapf(ErrMalformedRecord, "value %q of key %q", values[k], k)
		}
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", k, values[k]); err != nil {
			return errors.Wrap(err, "write data record")
		}
	}
	return errors.Wrap(bw.Flush(), "flush data records")
}

func openData(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open data file %s", path)
	}
	return f, nil
}
