// 14 Oct 2026

// Package common has the few things every command and library in
// afprep needs: exit codes, a logger and a helper for tests.
package common

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

const (
	ExitSuccess = iota
	ExitFailure
	ExitUsageError
)

// NewLogger decides where to send logged output.
//
//	""        thrown away
//	"stdout"  standard output
//	"stderr"  standard error
//	anything  else is a file name, appended to
//
// The returned closer must be called when finished. It does nothing
// unless a file was opened.
func NewLogger(where string) (*log.Logger, io.Closer, error) {
	var w io.Writer
	var c io.Closer = nopCloser{}
	switch where {
	case "":
		w = io.Discard
	case "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		fp, err := os.OpenFile(where, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("creating log file: %w", err)
		}
		w, c = fp, fp
	}
	return log.New(w, "", log.LstdFlags|log.Lshortfile), c, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Discard is a logger for callers who passed nil.
func Discard() *log.Logger { return log.New(io.Discard, "", 0) }

// OrDiscard returns l, or a discarding logger if l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// Stem is the file name without directory and without its last
// extension, so "a/b/x.part.sdf" gives "x.part".
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// BaseName is the file name up to its first dot, so "a/lig.v2.sdf"
// gives "lig". A name that starts with a dot falls back to Stem.
func BaseName(path string) string {
	base, _, _ := strings.Cut(filepath.Base(path), ".")
	if base == "" {
		return Stem(path)
	}
	return base
}

// WrtTemp writes a string to a temporary file and returns
// the filename. It is used all over the place in testing.
func WrtTemp(s string) (string, error) {
	fTmp, err := os.CreateTemp("", "_del_me_testing")
	if err != nil {
		return "", fmt.Errorf("tempfile fail")
	}
	defer fTmp.Close()
	if _, err := io.WriteString(fTmp, s); err != nil {
		return "", fmt.Errorf("writing string to temp file %v", fTmp.Name())
	}
	return fTmp.Name(), nil
}
