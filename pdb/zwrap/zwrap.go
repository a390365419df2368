// Package zwrap opens a file or takes a stream and optionally wraps it
// so reads come from a decompressor. Upon calling Close, the
// decompressor is closed, followed by the underlying source.
// Files are memory mapped rather than read through a buffer. Most
// structure and ligand files are read once, front to back.
package zwrap

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Reader is what we return. Exactly one of the sources is set, the
// decompressor zrdr may sit on top of it.
type Reader struct {
	src  io.Reader
	zrdr *gzip.Reader
	mm   mmap.MMap
	fp   io.Closer
}

// isGzip looks for the two magic bytes at the start of gzipped data.
func isGzip(b []byte) bool {
	return len(b) >= 2 && b[0] == 0x1f && b[1] == 0x8b
}

// Close closes the decompressor, then unmaps and closes the backing file
// or stream. All errors are collected into one.
func (r *Reader) Close() error {
	var s string
	if r.zrdr != nil {
		if e := r.zrdr.Close(); e != nil {
			s = e.Error()
		}
	}
	if r.mm != nil {
		if e := r.mm.Unmap(); e != nil {
			s = s + " " + e.Error()
		}
	}
	if r.fp != nil {
		if e := r.fp.Close(); e != nil {
			s = s + " " + e.Error()
		}
	}
	if s == "" {
		return nil
	}
	return errors.New(s)
}

// Read makes sure we read from the decompressed stream and
// not the underlying one.
func (r *Reader) Read(p []byte) (int, error) {
	if r.zrdr != nil {
		return r.zrdr.Read(p)
	}
	return r.src.Read(p)
}

// Open maps a file into memory and decides if the contents are
// compressed. A zero length file cannot be mapped, so it gets an
// empty reader.
func Open(fname string) (*Reader, error) {
	fp, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	fi, err := fp.Stat()
	if err != nil {
		fp.Close()
		return nil, err
	}
	if fi.IsDir() {
		fp.Close()
		return nil, errors.New(fname + " is a directory")
	}
	if fi.Size() == 0 {
		return &Reader{src: bytes.NewReader(nil), fp: fp}, nil
	}
	mm, err := mmap.Map(fp, mmap.RDONLY, 0)
	if err != nil {
		fp.Close()
		return nil, errors.New("mapping " + fname + ": " + err.Error())
	}
	r := &Reader{src: bytes.NewReader(mm), mm: mm, fp: fp}
	if isGzip(mm) {
		if r.zrdr, err = gzip.NewReader(r.src); err != nil {
			r.Close()
			return nil, errors.New("reading " + fname + " " + err.Error())
		}
	}
	return r, nil
}

// Wrap takes a stream like an http body and wraps it in a
// decompressor. It is an error if the stream is not gzipped.
func Wrap(fp io.ReadCloser) (*Reader, error) {
	r := &Reader{src: fp, fp: fp}
	var err error
	r.zrdr, err = gzip.NewReader(fp)
	return r, err
}

// ReadFile returns the whole, decompressed contents of a file.
func ReadFile(fname string) ([]byte, error) {
	r, err := Open(fname)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
