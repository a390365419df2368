package atomtab

import (
	"fmt"
)

// ResidueStarts returns the index of the first atom of every residue,
// followed by an exclusive stop (the number of atoms). A residue is a
// run of consecutive rows with the same chain and residue number.
// Nothing is assumed about sorting, so chains A, A, B, A give three
// residues. An empty table gives []int{0}.
func ResidueStarts(t *Table) []int {
	n := t.Len()
	starts := make([]int, 0, n/8+2)
	for i := 0; i < n; i++ {
		if i == 0 || t.ChainID[i] != t.ChainID[i-1] || t.ResSeq[i] != t.ResSeq[i-1] {
			starts = append(starts, i)
		}
	}
	return append(starts, n)
}

// Alternate location choices for SelectAltLoc. Anything else should
// be a single character naming the code to keep.
const (
	AltLocFirst = "first"
	AltLocAll   = "all"
)

// SelectAltLoc picks one conformation where atoms have alternate
// locations. With AltLocFirst, within each residue, we keep atoms
// with no code and atoms carrying the first code seen in that residue.
// With a single letter, we keep atoms with that code or no code.
// AltLocAll, or an empty string, keeps everything.
func SelectAltLoc(t *Table, mode string) (*Table, error) {
	switch {
	case mode == "" || mode == AltLocAll:
		return t, nil
	case mode == AltLocFirst:
	case len(mode) == 1:
	default:
		return nil, fmt.Errorf("altloc should be %q, %q or one character, not %q",
			AltLocFirst, AltLocAll, mode)
	}
	keep := make([]bool, t.Len())
	starts := ResidueStarts(t)
	for r := 0; r < len(starts)-1; r++ {
		want := NoAltLoc
		if len(mode) == 1 {
			want = mode[0]
		}
		for i := starts[r]; i < starts[r+1]; i++ {
			c := t.AltLoc[i]
			if c == NoAltLoc {
				keep[i] = true
				continue
			}
			if want == NoAltLoc {
				want = c
			}
			keep[i] = c == want
		}
	}
	return t.Select(keep), nil
}
