package common_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/andrew-torda/afprep/pkg/common"
)

func TestNewLogger(t *testing.T) {
	for _, w := range []string{"", "stdout", "stderr"} {
		l, c, err := NewLogger(w)
		require.NoError(t, err)
		require.NotNil(t, l)
		require.NoError(t, c.Close())
	}
	fname := filepath.Join(t.TempDir(), "log")
	l, c, err := NewLogger(fname)
	require.NoError(t, err)
	l.Print("hello")
	require.NoError(t, c.Close())
	b, err := os.ReadFile(fname)
	require.NoError(t, err)
	require.Contains(t, string(b), "hello")

	_, _, err = NewLogger(filepath.Join(t.TempDir(), "no", "such", "dir"))
	require.Error(t, err)
}

var stemData = []struct{ in, out string }{
	{"a/b/x.sdf", "x"},
	{"x.part_1.sdf", "x.part_1"},
	{"noext", "noext"},
	{"/tmp/dir/", "dir"},
}

func TestStem(t *testing.T) {
	for _, d := range stemData {
		require.Equal(t, d.out, Stem(d.in), d.in)
	}
}

func TestBaseName(t *testing.T) {
	for _, d := range []struct{ in, out string }{
		{"a/b/lig.v2.sdf", "lig"},
		{"x.part_1.sdf", "x"},
		{"noext", "noext"},
		{"d/.hidden.smi", ".hidden"},
	} {
		require.Equal(t, d.out, BaseName(d.in), d.in)
	}
}

func TestWrtTemp(t *testing.T) {
	name, err := WrtTemp("abc")
	require.NoError(t, err)
	defer os.Remove(name)
	b, err := os.ReadFile(name)
	require.NoError(t, err)
	require.Equal(t, "abc", string(b))
	require.NotNil(t, OrDiscard(nil))
}
