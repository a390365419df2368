// 12 Oct 2026

// Package atomtab holds a molecular structure as a table with one row
// per atom. Columns are kept as slices, coordinates as an n x 3 matrix.
// Residues are not stored. They are found by scanning for changes in
// chain identifier and residue number, see ResidueStarts.
package atomtab

import (
	"errors"
	"fmt"

	"github.com/andrew-torda/matrix"

	"github.com/andrew-torda/afprep/pdb/cmmn"
)

// ErrMalformed is returned by Check for a table whose columns do not
// line up.
var ErrMalformed = errors.New("malformed atom table")

// NoAltLoc is the alternate location code of an atom which has none.
const NoAltLoc byte = 0

// Atom is one row of a Table.
type Atom struct {
	Element   string // chemical symbol, "C", "SE", "X", ...
	ResName   string // "ALA", "HOH", "ASX"
	AtomName  string // "CA", "OD1"
	ChainID   string
	EntityID  string
	ResSeq    int
	Coord     cmmn.Xyz
	Occupancy float32
	AltLoc    byte
}

// Table is the columnar form. All slices, and the rows of Coord, have
// the same length.
type Table struct {
	Element   []string
	ResName   []string
	AtomName  []string
	ChainID   []string
	EntityID  []string
	ResSeq    []int
	Occupancy []float32
	AltLoc    []byte
	Coord     *matrix.FMatrix2d
}

// New returns an empty table with room for n atoms.
func New(n int) *Table {
	return &Table{
		Element:   make([]string, 0, n),
		ResName:   make([]string, 0, n),
		AtomName:  make([]string, 0, n),
		ChainID:   make([]string, 0, n),
		EntityID:  make([]string, 0, n),
		ResSeq:    make([]int, 0, n),
		Occupancy: make([]float32, 0, n),
		AltLoc:    make([]byte, 0, n),
		Coord:     matrix.NewFMatrix2d(0, 3),
	}
}

// FromAtoms builds a table from rows, keeping their order.
func FromAtoms(atoms []Atom) *Table {
	t := New(len(atoms))
	t.Coord = matrix.NewFMatrix2d(len(atoms), 3)
	for i, a := range atoms {
		t.setRow(i, a)
	}
	return t
}

// setRow writes atom a into row i. The columns must already have room
// in the coordinate matrix, the other columns are appended to.
func (t *Table) setRow(i int, a Atom) {
	t.Element = append(t.Element, a.Element)
	t.ResName = append(t.ResName, a.ResName)
	t.AtomName = append(t.AtomName, a.AtomName)
	t.ChainID = append(t.ChainID, a.ChainID)
	t.EntityID = append(t.EntityID, a.EntityID)
	t.ResSeq = append(t.ResSeq, a.ResSeq)
	t.Occupancy = append(t.Occupancy, a.Occupancy)
	t.AltLoc = append(t.AltLoc, a.AltLoc)
	row := t.Coord.Mat[i]
	row[0], row[1], row[2] = a.Coord.X, a.Coord.Y, a.Coord.Z
}

// Append adds one atom to the end of the table. The coordinate matrix
// grows by copying, so for big tables prefer FromAtoms.
func (t *Table) Append(a Atom) {
	n := t.Len()
	old := t.Coord
	t.Coord = matrix.NewFMatrix2d(n+1, 3)
	for i := 0; i < n; i++ {
		copy(t.Coord.Mat[i], old.Mat[i])
	}
	t.setRow(n, a)
}

// Len is the number of atoms.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Element)
}

// Atom returns row i.
func (t *Table) Atom(i int) Atom {
	row := t.Coord.Mat[i]
	return Atom{
		Element:   t.Element[i],
		ResName:   t.ResName[i],
		AtomName:  t.AtomName[i],
		ChainID:   t.ChainID[i],
		EntityID:  t.EntityID[i],
		ResSeq:    t.ResSeq[i],
		Coord:     cmmn.Xyz{X: row[0], Y: row[1], Z: row[2]},
		Occupancy: t.Occupancy[i],
		AltLoc:    t.AltLoc[i],
	}
}

// Atoms returns all rows in order.
func (t *Table) Atoms() []Atom {
	ret := make([]Atom, t.Len())
	for i := range ret {
		ret[i] = t.Atom(i)
	}
	return ret
}

// Check says if every column has one entry per atom. Any function
// that is handed a table from outside should call this first.
func (t *Table) Check() error {
	if t == nil {
		return fmt.Errorf("%w: nil table", ErrMalformed)
	}
	n := len(t.Element)
	cols := []struct {
		name string
		n    int
	}{
		{"res_name", len(t.ResName)},
		{"atom_name", len(t.AtomName)},
		{"chain_id", len(t.ChainID)},
		{"entity_id", len(t.EntityID)},
		{"res_seq", len(t.ResSeq)},
		{"occupancy", len(t.Occupancy)},
		{"alt_loc", len(t.AltLoc)},
	}
	for _, c := range cols {
		if c.n != n {
			return fmt.Errorf("%w: column %s has %d entries, element has %d",
				ErrMalformed, c.name, c.n, n)
		}
	}
	if t.Coord == nil {
		return fmt.Errorf("%w: no coordinates", ErrMalformed)
	}
	nrow, ncol := t.Coord.Size()
	if nrow != n {
		return fmt.Errorf("%w: %d coordinates for %d atoms", ErrMalformed, nrow, n)
	}
	if n > 0 && ncol != 3 {
		return fmt.Errorf("%w: coordinates have %d columns", ErrMalformed, ncol)
	}
	return nil
}

// Select returns a new table with the rows where keep is true. Order
// is preserved and the original table is not touched.
func (t *Table) Select(keep []bool) *Table {
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}
	ret := New(n)
	ret.Coord = matrix.NewFMatrix2d(n, 3)
	j := 0
	for i, k := range keep {
		if !k {
			continue
		}
		ret.setRow(j, t.Atom(i))
		j++
	}
	return ret
}

// Map returns a new table where row i is f applied to row i.
func (t *Table) Map(f func(Atom) Atom) *Table {
	n := t.Len()
	ret := New(n)
	ret.Coord = matrix.NewFMatrix2d(n, 3)
	for i := 0; i < n; i++ {
		ret.setRow(i, f(t.Atom(i)))
	}
	return ret
}
