package pdb_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/andrew-torda/afprep/pdb"
	"github.com/andrew-torda/afprep/pdb/cmmn"
	"github.com/andrew-torda/afprep/pkg/atomtab"
)

var miniCif = filepath.FromSlash("mmcif/testdata/mini.cif")

// TestBrokenFile checks if we get sensible error messages when we open
// something that is not an mmcif file.
func TestBrokenFile(t *testing.T) {
	testfiles := []string{
		"/proc",
		"/does/not/exist",
		"testdata/mystery",
	}
	for _, s := range testfiles {
		st, err := ReadStructure(s, cmmn.FileSrc, Options{})
		require.Nil(t, st, s)
		require.Error(t, err, s)
	}
}

func TestOldFormat(t *testing.T) {
	_, err := ReadStructure("testdata/peedeebee1", cmmn.FileSrc, Options{})
	require.True(t, errors.Is(err, ErrOldFormat), err)
}

var fnameTypes = []struct {
	fname string
	ftype byte
}{
	{"boo.mmcif", Mmcif_fmt},
	{"boo.mmcif.gz", Mmcif_fmt},
	{"a/b/c.ent", Old_fmt},
	{"a\\b.ent.gz", Old_fmt},
	{"a.pdb", Old_fmt},
	{"a.pdb.gz", Old_fmt},
	{"testdata/ememcif1", Mmcif_fmt},
	{"testdata/ememcif2", Mmcif_fmt},
	{"testdata/peedeebee1", Old_fmt},
	{"testdata/peedeebee2", Old_fmt},
}

func TestOldOrMmcif(t *testing.T) {
	for _, f := range fnameTypes {
		r, err := OldOrMmcif(f.fname)
		require.NoError(t, err, f.fname)
		require.Equal(t, f.ftype, r, f.fname)
	}
}

func TestReadStructure(t *testing.T) {
	st, err := ReadStructure(miniCif, cmmn.FileSrc, Options{})
	require.NoError(t, err)
	require.Equal(t, "1ABC", st.ID)
	require.Equal(t, map[string]string{"1": "polypeptide(L)", "2": "polydeoxyribonucleotide"},
		st.EntityPolyType)
	require.Equal(t, "MGN", st.EntityPolySeq["1"])
	require.Equal(t, "AC", st.EntityPolySeq["2"])
	// first altloc only, so one of the two GLY CA goes
	require.Equal(t, 13, st.Atoms.Len())
	require.Equal(t, []string{"A", "B", "C", "D"}, st.Chains())
	require.Equal(t, map[string]int{"A": 1, "B": 1, "C": 1, "D": 1}, st.Copies)

	st, err = ReadStructure(miniCif, cmmn.FileSrc, Options{AltLoc: atomtab.AltLocAll, ModelMax: -1})
	require.NoError(t, err)
	require.Equal(t, 15, st.Atoms.Len())

	_, err = ReadStructure(miniCif, cmmn.FileSrc, Options{AltLoc: "xyz"})
	require.Error(t, err)
}

func TestAssembly(t *testing.T) {
	st, err := ReadStructure("testdata/ememcif1", cmmn.FileSrc, Options{AssemblyID: "1"})
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B", "C"}, st.Chains(), "water chain D is not in the assembly")
	require.Equal(t, 2, st.Copies["A"])
	require.Equal(t, 0, st.Copies["D"])

	_, err = ReadStructure(miniCif, cmmn.FileSrc, Options{AssemblyID: "7"})
	require.Error(t, err)
}

var operData = []struct {
	expr string
	n    int
	ok   bool
}{
	{"1", 1, true},
	{"1,2", 2, true},
	{"1-60", 60, true},
	{"(1-3)", 3, true},
	{"(1,2)(3-5)", 6, true},
	{"(1,2)(X0)", 2, true},
	{"", 0, false},
	{"(1,2", 0, false},
	{"5-1", 0, false},
	{"1,,2", 0, false},
}

func TestOperCount(t *testing.T) {
	for _, d := range operData {
		n, err := OperCount(d.expr)
		if !d.ok {
			require.Error(t, err, d.expr)
			continue
		}
		require.NoError(t, err, d.expr)
		require.Equal(t, d.n, n, d.expr)
	}
}
