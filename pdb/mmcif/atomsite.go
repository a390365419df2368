// This file is for parsing atom_site lines. Each line becomes one row
// of an atom table.
package mmcif

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/andrew-torda/afprep/pdb/cmmn"
	"github.com/andrew-torda/afprep/pkg/atomtab"
)

// cifCol is one column we want from the atom_site table. n is -1 if
// the column was not found.
type cifCol struct {
	cifName string // name in mmcif file, like label_asym_id
	altName string // an alternative, label_seq_id is the alt for auth_seq_id
	n       int
	needed  bool
}

type acn struct {
	typeSymbol,
	labelAtomID,
	labelCompID,
	labelAsymID,
	labelEntityID,
	seqID,
	labelSeqID,
	cartnX,
	cartnY,
	cartnZ,
	labelAltID,
	occupancy,
	modelNum cifCol
}

func newAcn() *acn {
	return &acn{
		typeSymbol:    cifCol{cifName: "type_symbol", needed: true},
		labelAtomID:   cifCol{cifName: "label_atom_id", needed: true},
		labelCompID:   cifCol{cifName: "label_comp_id", needed: true},
		labelAsymID:   cifCol{cifName: "label_asym_id", needed: true},
		labelEntityID: cifCol{cifName: "label_entity_id", needed: true},
		seqID:         cifCol{cifName: "auth_seq_id", altName: "label_seq_id", needed: true},
		labelSeqID:    cifCol{cifName: "label_seq_id"},
		cartnX:        cifCol{cifName: "Cartn_x", needed: true},
		cartnY:        cifCol{cifName: "Cartn_y", needed: true},
		cartnZ:        cifCol{cifName: "Cartn_z", needed: true},
		labelAltID:    cifCol{cifName: "label_alt_id"},
		occupancy:     cifCol{cifName: "occupancy"},
		modelNum:      cifCol{cifName: "pdbx_PDB_model_num"},
	}
}

func (a *acn) all() []*cifCol {
	return []*cifCol{&a.typeSymbol, &a.labelAtomID, &a.labelCompID,
		&a.labelAsymID, &a.labelEntityID, &a.seqID, &a.labelSeqID,
		&a.cartnX, &a.cartnY, &a.cartnZ, &a.labelAltID, &a.occupancy,
		&a.modelNum}
}

// getColPos finds the column in the headers. If it is not there and
// it is needed, err is set. Once err is set, calls are no-ops, so the
// caller can check once at the end.
func (cf *cifCol) getColPos(names []string, err *error) {
	cf.n = -1
	if *err != nil {
		return
	}
	for _, try := range []string{cf.cifName, cf.altName} {
		if try == "" {
			continue
		}
		for i, h := range names {
			if h == try {
				cf.n = i
				return
			}
		}
	}
	if cf.needed {
		*err = errors.New("Could not find atomsite column: " + cf.cifName)
	}
}

// isDotOrQ returns true if the string is a dot or question mark
func isDotOrQ(s bSlice) bool {
	return len(s) == 1 && (s[0] == '.' || s[0] == '?')
}

// unquote removes quotes from a string like "C5'" which comes with
// the quotes still attached.
func unquote(s bSlice) bSlice {
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	if first == dquote && last == dquote || first == squote && last == squote {
		return s[1 : len(s)-1]
	}
	return s
}

// str gives the string in column cf, with "." and "?" as empty.
func str(cmpnt []bSlice, cf cifCol) string {
	if cf.n < 0 {
		return ""
	}
	s := cmpnt[cf.n]
	if isDotOrQ(s) {
		return ""
	}
	return string(s)
}

// getxyz gets the x, y and z coordinates from an input line.
// It checks if successful, but this is a bit tedious, so we
// bundle it up into a local function which flags the first
// error. Subsequent calls are no-ops if an error has already occurred.
func getxyz(cmpnt []bSlice, acn *acn) (cmmn.Xyz, error) {
	var err error
	ff := func(index int) float32 {
		var xx float64
		if err != nil {
			return 0
		}
		if xx, err = strconv.ParseFloat(string(cmpnt[index]), 32); err != nil {
			return 0
		}
		return float32(xx)
	}
	var xyz cmmn.Xyz
	xyz.X = ff(acn.cartnX.n)
	xyz.Y = ff(acn.cartnY.n)
	xyz.Z = ff(acn.cartnZ.n)
	if err != nil {
		return cmmn.BrokenXyz, err
	}
	return xyz, nil
}

// getResSeq returns the residue number. auth_seq_id comes first. If it
// is missing, we fall back to label_seq_id and if that is missing too,
// we have a broken residue number, but no error.
func getResSeq(cmpnt []bSlice, acn *acn) (int, error) {
	s := cmpnt[acn.seqID.n]
	if isDotOrQ(s) && acn.labelSeqID.n >= 0 {
		s = cmpnt[acn.labelSeqID.n]
	}
	if isDotOrQ(s) {
		return cmmn.BrokenResNum, nil
	}
	t, err := strconv.Atoi(string(s))
	if err != nil {
		return cmmn.BrokenResNum, fmt.Errorf("%s: Converting residue number %s", err.Error(), s)
	}
	return t, nil
}

// getAltLoc returns the alternate location code.
func getAltLoc(cmpnt []bSlice, acn *acn) (byte, error) {
	if acn.labelAltID.n < 0 {
		return atomtab.NoAltLoc, nil
	}
	t := cmpnt[acn.labelAltID.n]
	if isDotOrQ(t) {
		return atomtab.NoAltLoc, nil
	}
	if len(t) > 1 {
		return 0, errors.New("alt loc code length > 1: \"" + string(t) + "\"")
	}
	return t[0], nil
}

// getOccupancy returns 1 if there is no occupancy column or value.
func getOccupancy(cmpnt []bSlice, acn *acn) (float32, error) {
	if acn.occupancy.n < 0 || isDotOrQ(cmpnt[acn.occupancy.n]) {
		return 1, nil
	}
	x, err := strconv.ParseFloat(string(cmpnt[acn.occupancy.n]), 32)
	if err != nil {
		return 0, fmt.Errorf("%s: occupancy", err.Error())
	}
	return float32(x), nil
}

// modelFltr decides if a line belongs to a model we want. Models are
// counted in the order they first appear.
type modelFltr struct {
	max  int16
	last string
	n    int16
}

func (m *modelFltr) want(cmpnt []bSlice, acn *acn) bool {
	if m.max < 0 {
		return true
	}
	if m.max == 0 {
		return false
	}
	if acn.modelNum.n < 0 {
		return true // only one model
	}
	s := string(cmpnt[acn.modelNum.n])
	if s != m.last {
		m.n++
		m.last = s
	}
	return m.n <= m.max
}

// chainWanted says if we keep a chain.
func chainWanted(chain string, chains []string) bool {
	if len(chains) == 0 {
		return true
	}
	for _, c := range chains {
		if c == chain {
			return true
		}
	}
	return false
}

// getAtom takes the components of one line and returns an atom.
func getAtom(cmpnt []bSlice, acn *acn) (atomtab.Atom, error) {
	var a atomtab.Atom
	var err error
	if a.Coord, err = getxyz(cmpnt, acn); err != nil {
		return a, err
	}
	if a.ResSeq, err = getResSeq(cmpnt, acn); err != nil {
		return a, err
	}
	if a.AltLoc, err = getAltLoc(cmpnt, acn); err != nil {
		return a, err
	}
	if a.Occupancy, err = getOccupancy(cmpnt, acn); err != nil {
		return a, err
	}
	a.Element = strings.ToUpper(str(cmpnt, acn.typeSymbol))
	a.AtomName = string(unquote(cmpnt[acn.labelAtomID.n]))
	a.ResName = str(cmpnt, acn.labelCompID)
	a.ChainID = str(cmpnt, acn.labelAsymID)
	a.EntityID = str(cmpnt, acn.labelEntityID)
	return a, nil
}

// stateAtomTable is like any stateLoopTable, but we special case it
// because it is the biggest, most important and slowest to
// process. We expect one atom per line, which is how the PDB writes
// them, so we can use the cheap splitter on most lines.
func stateAtomTable(mr *MmcifReader, md *MmcifData) stateFn {
	names := make([]string, len(mr.headers))
	for i, h := range mr.headers {
		_, names[i], _ = category(h)
	}
	mr.headers = mr.headers[:0]
	acn := newAcn()
	var err error
	for _, c := range acn.all() {
		c.getColPos(names, &err)
	}
	if err != nil {
		mr.fill(err.Error(), true)
		return nil
	}
	ncol := len(names)
	atoms := make([]atomtab.Atom, 0, 1024)
	mf := modelFltr{max: mr.fltr.modelMax}
	var scrtch [40]bSlice
	for b := mr.cbytes(); !isSpecial(b); b = mr.cbytes() {
		var cmpnt []bSlice
		if notNasty(b) && ncol <= len(scrtch) {
			cmpnt = fields(b, scrtch[:])
		} else {
			t, err := splitCifLine(b, mr.scrtchBytes)
			if err != nil {
				mr.fill(err.Error(), true)
				return nil
			}
			cmpnt = make([]bSlice, len(t))
			for i := range t {
				cmpnt[i] = t[i]
			}
		}
		if len(cmpnt) != ncol {
			mr.fill(fmt.Sprintf("Too few components (%d), wanted %d", len(cmpnt), ncol), true)
			return nil
		}
		if mf.want(cmpnt, acn) && chainWanted(str(cmpnt, acn.labelAsymID), mr.fltr.chains) {
			a, err := getAtom(cmpnt, acn)
			if err != nil {
				mr.fill("parsing atom: "+err.Error(), true)
				return nil
			}
			atoms = append(atoms, a)
		}
		if !mr.cscan() {
			return nil
		}
	}
	md.Atoms = atomtab.FromAtoms(atoms)
	return stateTop
}
