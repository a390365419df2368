package atomtab_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/andrew-torda/afprep/pkg/atomtab"
	"github.com/andrew-torda/afprep/pdb/cmmn"
)

// atm is shorthand for the tests
func atm(chain string, resSeq int, resName, atName, elem string) Atom {
	return Atom{
		Element: elem, ResName: resName, AtomName: atName,
		ChainID: chain, EntityID: "1", ResSeq: resSeq,
		Coord: cmmn.Xyz{X: float32(resSeq), Y: 1, Z: 2}, Occupancy: 1,
	}
}

func TestFromAtomsRoundTrip(t *testing.T) {
	in := []Atom{
		atm("A", 1, "ALA", "N", "N"),
		atm("A", 1, "ALA", "CA", "C"),
		atm("B", 7, "HOH", "O", "O"),
	}
	tab := FromAtoms(in)
	require.NoError(t, tab.Check())
	require.Equal(t, 3, tab.Len())
	require.Equal(t, in, tab.Atoms())
}

func TestAppend(t *testing.T) {
	tab := New(0)
	tab.Append(atm("A", 1, "GLY", "N", "N"))
	tab.Append(atm("A", 2, "GLY", "CA", "C"))
	require.NoError(t, tab.Check())
	require.Equal(t, 2, tab.Len())
	require.Equal(t, float32(2), tab.Atom(1).Coord.X)
	require.Equal(t, float32(1), tab.Atom(0).Coord.X)
}

var residueData = []struct {
	name  string
	atoms []Atom
	want  []int
}{
	{"empty", nil, []int{0}},
	{"one", []Atom{atm("A", 1, "ALA", "N", "N")}, []int{0, 1}},
	{"two residues", []Atom{
		atm("A", 1, "ALA", "N", "N"),
		atm("A", 1, "ALA", "CA", "C"),
		atm("A", 2, "GLY", "N", "N"),
	}, []int{0, 2, 3}},
	{"not sorted", []Atom{ // A1 A1 B1 A1 is three residues
		atm("A", 1, "ALA", "N", "N"),
		atm("A", 1, "ALA", "CA", "C"),
		atm("B", 1, "ALA", "N", "N"),
		atm("A", 1, "ALA", "C", "C"),
	}, []int{0, 2, 3, 4}},
	{"same number, new chain", []Atom{
		atm("A", 5, "SO4", "S", "S"),
		atm("C", 5, "SO4", "S", "S"),
	}, []int{0, 1, 2}},
}

func TestResidueStarts(t *testing.T) {
	for _, d := range residueData {
		got := ResidueStarts(FromAtoms(d.atoms))
		require.Equal(t, d.want, got, d.name)
	}
}

func TestSelectKeepsOrder(t *testing.T) {
	in := []Atom{
		atm("A", 1, "ALA", "N", "N"),
		atm("A", 1, "ALA", "H", "H"),
		atm("A", 2, "GLY", "N", "N"),
	}
	tab := FromAtoms(in)
	out := tab.Select([]bool{true, false, true})
	require.Equal(t, []Atom{in[0], in[2]}, out.Atoms())
	require.Equal(t, 3, tab.Len(), "original table must not change")
}

func TestCheckMalformed(t *testing.T) {
	tab := FromAtoms([]Atom{atm("A", 1, "ALA", "N", "N")})
	tab.ResName = tab.ResName[:0]
	err := tab.Check()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrMalformed))

	tab = FromAtoms([]Atom{atm("A", 1, "ALA", "N", "N")})
	tab.Coord = nil
	require.ErrorIs(t, tab.Check(), ErrMalformed)

	var nilTab *Table
	require.ErrorIs(t, nilTab.Check(), ErrMalformed)
}

func TestSelectAltLoc(t *testing.T) {
	mk := func(res int, name string, alt byte) Atom {
		a := atm("A", res, "SER", name, "C")
		a.AltLoc = alt
		return a
	}
	tab := FromAtoms([]Atom{
		mk(1, "N", NoAltLoc),
		mk(1, "CB", 'B'), // first code seen in residue 1 is B
		mk(1, "CB", 'A'),
		mk(2, "N", NoAltLoc),
		mk(2, "OG", 'A'),
		mk(2, "OG", 'B'),
	})
	first, err := SelectAltLoc(tab, AltLocFirst)
	require.NoError(t, err)
	require.Equal(t, []byte{NoAltLoc, 'B', NoAltLoc, 'A'}, first.AltLoc)

	onlyA, err := SelectAltLoc(tab, "A")
	require.NoError(t, err)
	require.Equal(t, []byte{NoAltLoc, 'A', NoAltLoc, 'A'}, onlyA.AltLoc)

	all, err := SelectAltLoc(tab, AltLocAll)
	require.NoError(t, err)
	require.Equal(t, 6, all.Len())

	_, err = SelectAltLoc(tab, "AB")
	require.Error(t, err)
}
