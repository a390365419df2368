// Test Zwrap
package zwrap_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/andrew-torda/afprep/brokenio"
	"github.com/andrew-torda/afprep/pdb/zwrap"
)

// both of these are "andrewsays", but the first is compressed. Write them to a file
// and check that the file opener does the right thing.
type gztest struct {
	data    []byte
	gzipped bool
}

var gztests = []gztest{
	{[]byte{
		0x1f, 0x8b, 0x08, 0x00, 0xb6, 0xf1, 0xa0, 0x5b, 0x00, 0x03,
		0x4b, 0xcc, 0x4b, 0x29, 0x4a, 0x2d, 0x2f, 0x4e, 0xac, 0x2c,
		0xce, 0x48, 0xcd, 0xc9, 0xc9, 0x07, 0x00, 0x44, 0xa8, 0x66,
		0x89, 0x0f, 0x00, 0x00, 0x00},
		true,
	},
	{[]byte{
		0x61, 0x6e, 0x64, 0x72, 0x65, 0x77, 0x73, 0x61,
		0x79, 0x73, 0x68, 0x65, 0x6c, 0x6c, 0x6f, 0x0a},
		false,
	},
}

// writeToTmp writes a byte slice to a file in a temporary directory
// and returns the name.
func writeToTmp(t *testing.T, data []byte) string {
	fname := filepath.Join(t.TempDir(), "del_me_testing")
	if err := os.WriteFile(fname, data, 0644); err != nil {
		t.Fatal("fail writing to tempfile", err)
	}
	return fname
}

// Open should not fail since it guesses if the file is compressed or not.
func TestOpen(t *testing.T) {
	for _, x := range gztests {
		fname := writeToTmp(t, x.data)
		r, err := zwrap.Open(fname)
		if err != nil {
			t.Fatalf("Fail on file where compressed was %v: %v", x.gzipped, err)
		}
		b, err := io.ReadAll(r)
		if err != nil {
			t.Errorf("Read error %s", err)
		}
		if string(b[:10]) != "andrewsays" {
			t.Errorf("wrong string: %s", b[:10])
		}
		if err := r.Close(); err != nil {
			t.Errorf("Error closing: %s", err)
		}
	}
}

func TestWrap(t *testing.T) {
	for _, x := range gztests {
		rc := io.NopCloser(bytes.NewReader(x.data))
		r, err := zwrap.Wrap(rc)
		if err != nil {
			if x.gzipped {
				t.Error("Fail on correctly gzipped stream")
			}
			continue // It is not gzipped, so move on to next
		}
		if !x.gzipped {
			t.Error("Fail on not compressed stream")
		}
		b, _ := io.ReadAll(r)
		if string(b[:10]) != "andrewsays" {
			t.Errorf("wrong string: %s", b)
		}
	}
}

func TestEmptyAndMissing(t *testing.T) {
	fname := writeToTmp(t, nil)
	b, err := zwrap.ReadFile(fname)
	if err != nil || len(b) != 0 {
		t.Errorf("empty file gave %d bytes and %v", len(b), err)
	}
	if _, err := zwrap.Open(filepath.Join(t.TempDir(), "not_there")); err == nil {
		t.Error("expected error on missing file")
	}
	if _, err := zwrap.Open(t.TempDir()); err == nil {
		t.Error("expected error opening a directory")
	}
}

// TestBrokenStream cuts a gzipped stream in the header and in the body.
func TestBrokenStream(t *testing.T) {
	data := gztests[0].data
	if _, err := zwrap.Wrap(brokenio.NewReader(bytes.NewReader(data), 5)); err == nil {
		t.Error("expected error from broken header")
	}
	r, err := zwrap.Wrap(brokenio.NewReader(bytes.NewReader(data), 15))
	if err != nil {
		t.Fatal("header was complete", err)
	}
	if _, err := io.ReadAll(r); err == nil {
		t.Error("expected error from broken body")
	}
	r.Close()
}
