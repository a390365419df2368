// brokenio wraps a reader so that it fails on purpose. It is for
// testing code which reads files, gzipped streams or downloads.
// A reader can pass through some bytes and then give an error, or
// look like a zero length file.

package brokenio

import (
	"errors"
	"io"
)

// ErrBroken is what a broken reader returns once it has given up.
var ErrBroken = errors.New("brokenio: artificial read error")

// Reader passes through the first After bytes of the wrapped reader
// and then fails. NByte and NCalled count what went through.
type Reader struct {
	rdr     io.Reader
	after   int
	empty   bool
	NByte   int
	NCalled int
}

// NewReader fails after n bytes. With n of zero, the first read fails.
func NewReader(r io.Reader, n int) *Reader {
	return &Reader{rdr: r, after: n}
}

// Empty gives io.EOF on the first read, which is what one sees on a
// zero length file.
func Empty(r io.Reader) *Reader {
	return &Reader{rdr: r, empty: true}
}

// Read wraps the original reader, but never gives out more than the
// remaining allowance.
func (r *Reader) Read(p []byte) (int, error) {
	r.NCalled++
	if r.empty {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}
	left := r.after - r.NByte
	if left <= 0 {
		return 0, ErrBroken
	}
	if len(p) > left {
		p = p[:left]
	}
	n, err := r.rdr.Read(p)
	r.NByte += n
	return n, err
}

// Close closes the wrapped reader if it can be closed.
func (r *Reader) Close() error {
	if c, ok := r.rdr.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
