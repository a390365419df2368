package ligand

import (
	"errors"
	"fmt"
	"regexp"
)

// smilesChars is the set of characters that may appear at all.
var smilesChars = regexp.MustCompile(`^[A-Za-z0-9@+\-\[\]()=#$:/\\.%*~]+$`)

// organic subset atoms, written without brackets
var organic = map[string]bool{
	"B": true, "C": true, "N": true, "O": true, "P": true, "S": true,
	"F": true, "Cl": true, "Br": true, "I": true, "*": true,
	"b": true, "c": true, "n": true, "o": true, "p": true, "s": true,
}

// CheckSMILES does a syntax check on a SMILES string. It does not
// check valences or aromaticity. It wants at least one atom, balanced
// brackets and branches, paired ring closures and atoms outside
// brackets from the organic subset.
func CheckSMILES(s string) error {
	if s == "" {
		return errors.New("empty SMILES")
	}
	if !smilesChars.MatchString(s) {
		return fmt.Errorf("SMILES %q has illegal characters", s)
	}
	nAtom := 0
	depth := 0
	rings := make(map[string]bool)
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '[':
			j := i + 1
			for j < len(s) && s[j] != ']' {
				if s[j] == '[' {
					return fmt.Errorf("SMILES %q: nested [", s)
				}
				j++
			}
			if j == len(s) {
				return fmt.Errorf("SMILES %q: unclosed [", s)
			}
			if j == i+1 {
				return fmt.Errorf("SMILES %q: empty []", s)
			}
			nAtom++
			i = j
		case c == ']':
			return fmt.Errorf("SMILES %q: ] without [", s)
		case c == '(':
			if nAtom == 0 {
				return fmt.Errorf("SMILES %q: branch before any atom", s)
			}
			depth++
		case c == ')':
			if depth--; depth < 0 {
				return fmt.Errorf("SMILES %q: ) without (", s)
			}
		case c >= '0' && c <= '9':
			toggle(rings, s[i:i+1])
		case c == '%':
			if i+2 >= len(s) || !isDigit(s[i+1]) || !isDigit(s[i+2]) {
				return fmt.Errorf("SMILES %q: %% needs two digits", s)
			}
			toggle(rings, s[i+1:i+3])
			i += 2
		case isLetter(c) || c == '*':
			sym := s[i : i+1]
			if i+1 < len(s) && (s[i:i+2] == "Cl" || s[i:i+2] == "Br") {
				sym = s[i : i+2]
				i++
			}
			if !organic[sym] {
				return fmt.Errorf("SMILES %q: %s must be in brackets", s, sym)
			}
			nAtom++
		}
	}
	if depth != 0 {
		return fmt.Errorf("SMILES %q: unclosed (", s)
	}
	if len(rings) != 0 {
		return fmt.Errorf("SMILES %q: ring closure not paired", s)
	}
	if nAtom == 0 {
		return fmt.Errorf("SMILES %q: no atoms", s)
	}
	return nil
}

func toggle(m map[string]bool, k string) {
	if m[k] {
		delete(m, k)
	} else {
		m[k] = true
	}
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
