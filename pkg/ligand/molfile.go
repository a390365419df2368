package ligand

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoAtoms is returned for a record with an empty atom block.
var ErrNoAtoms = errors.New("molecule has no atoms")

const sdfEnd = "$$$$"

type Atom struct {
	Element string
	X, Y, Z float64
}

type Bond struct {
	From, To, Order int // atoms count from 0
}

type Molecule struct {
	Name  string
	Atoms []Atom
	Bonds []Bond
}

// SplitSDF breaks sdf data into records at the $$$$ lines. Each record
// keeps its terminator. Blank trailing records are dropped.
func SplitSDF(data []byte) [][]byte {
	var ret [][]byte
	var cur []byte
	for len(data) > 0 {
		line := data
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			line, data = data[:i+1], data[i+1:]
		} else {
			data = nil
		}
		cur = append(cur, line...)
		if string(bytes.TrimSpace(line)) == sdfEnd {
			ret = append(ret, cur)
			cur = nil
		}
	}
	if len(bytes.TrimSpace(cur)) > 0 {
		ret = append(ret, cur)
	}
	return ret
}

// ParseMolfile reads the first molecule in a mol or sdf record. V2000
// and V3000 connection tables are understood.
func ParseMolfile(data []byte) (*Molecule, error) {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	if len(lines) < 4 {
		return nil, errors.New("molfile: too few lines for header")
	}
	mol := &Molecule{Name: strings.TrimSpace(lines[0])}
	counts := lines[3]
	var err error
	if strings.Contains(counts, "V3000") {
		err = mol.readV3000(lines[4:])
	} else {
		err = mol.readV2000(counts, lines[4:])
	}
	if err != nil {
		return nil, err
	}
	if len(mol.Atoms) == 0 {
		return nil, ErrNoAtoms
	}
	return mol, nil
}

// field cuts a fixed width column, tolerating short lines.
func field(s string, from, to int) string {
	if from >= len(s) {
		return ""
	}
	if to > len(s) {
		to = len(s)
	}
	return strings.TrimSpace(s[from:to])
}

func (mol *Molecule) readV2000(counts string, lines []string) error {
	nAtom, err := strconv.Atoi(field(counts, 0, 3))
	if err != nil {
		return fmt.Errorf("molfile counts line %q: %w", counts, err)
	}
	nBond, err := strconv.Atoi(field(counts, 3, 6))
	if err != nil {
		return fmt.Errorf("molfile counts line %q: %w", counts, err)
	}
	if len(lines) < nAtom+nBond {
		return fmt.Errorf("molfile: %d atoms and %d bonds, but only %d lines", nAtom, nBond, len(lines))
	}
	for i, l := range lines[:nAtom] {
		var a Atom
		xyz := []*float64{&a.X, &a.Y, &a.Z}
		for j, p := range xyz {
			if *p, err = strconv.ParseFloat(field(l, 10*j, 10*j+10), 64); err != nil {
				return fmt.Errorf("molfile atom %d: %w", i+1, err)
			}
		}
		if a.Element = field(l, 31, 34); a.Element == "" {
			return fmt.Errorf("molfile atom %d: no element", i+1)
		}
		mol.Atoms = append(mol.Atoms, a)
	}
	for i, l := range lines[nAtom : nAtom+nBond] {
		var b [3]int
		for j := range b {
			if b[j], err = strconv.Atoi(field(l, 3*j, 3*j+3)); err != nil {
				return fmt.Errorf("molfile bond %d: %w", i+1, err)
			}
		}
		if err := mol.addBond(b[0], b[1], b[2]); err != nil {
			return err
		}
	}
	return nil
}

const v30 = "M  V30 "

// readV3000 reads the atom and bond blocks. Continuation lines ending
// in "-" are not expected in these blocks and are not handled.
func (mol *Molecule) readV3000(lines []string) error {
	var block string
	for _, l := range lines {
		if strings.HasPrefix(l, "M  END") {
			break
		}
		if !strings.HasPrefix(l, v30) {
			continue
		}
		f := strings.Fields(l[len(v30):])
		if len(f) == 0 {
			continue
		}
		switch {
		case f[0] == "BEGIN" && len(f) > 1:
			block = f[1]
			continue
		case f[0] == "END":
			block = ""
			continue
		}
		switch block {
		case "ATOM":
			if len(f) < 5 {
				return fmt.Errorf("molfile V3000 atom line %q", l)
			}
			a := Atom{Element: f[1]}
			var err error
			for j, p := range []*float64{&a.X, &a.Y, &a.Z} {
				if *p, err = strconv.ParseFloat(f[2+j], 64); err != nil {
					return fmt.Errorf("molfile V3000 atom %s: %w", f[0], err)
				}
			}
			mol.Atoms = append(mol.Atoms, a)
		case "BOND":
			if len(f) < 4 {
				return fmt.Errorf("molfile V3000 bond line %q", l)
			}
			var b [3]int
			for j := range b {
				var err error
				if b[j], err = strconv.Atoi(f[1+j]); err != nil {
					return fmt.Errorf("molfile V3000 bond %s: %w", f[0], err)
				}
			}
			if err := mol.addBond(b[1], b[2], b[0]); err != nil {
				return err
			}
		}
	}
	return nil
}

// addBond takes atom numbers counting from 1.
func (mol *Molecule) addBond(from, to, order int) error {
	n := len(mol.Atoms)
	if from < 1 || from > n || to < 1 || to > n {
		return fmt.Errorf("molfile: bond %d-%d, but %d atoms", from, to, n)
	}
	mol.Bonds = append(mol.Bonds, Bond{From: from - 1, To: to - 1, Order: order})
	return nil
}
