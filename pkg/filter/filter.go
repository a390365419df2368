// 13 Oct 2026

// Package filter cleans up a structure before it goes to the model.
// It is a fixed, ordered list of steps. Each step takes an atom table
// and returns a new one, removing or relabelling atoms. The order is
// part of the contract: later steps assume earlier ones have run.
// The rules follow the AlphaFold3 preprocessing (SI section 2.5.4).
package filter

import (
	"fmt"

	"github.com/andrew-torda/afprep/pkg/atomtab"
)

// Context is what a step may look at, other than the atoms.
// EntityPolyType maps entity id to polymer type, "polypeptide(L)" and
// so on. Only the keys matter here. It is never written to.
type Context struct {
	EntityPolyType map[string]string
}

// Step is one named transformation.
type Step struct {
	Name  string
	Apply func(*atomtab.Table, Context) *atomtab.Table
}

// Pipeline is the order in which steps must be applied.
var Pipeline = []Step{
	{"remove_hydrogens", func(t *atomtab.Table, _ Context) *atomtab.Table { return RemoveHydrogens(t) }},
	{"remove_water", func(t *atomtab.Table, _ Context) *atomtab.Table { return RemoveWater(t) }},
	{"remove_element_X", func(t *atomtab.Table, _ Context) *atomtab.Table { return RemoveElementX(t) }},
	{"remove_crystallization_aids", func(t *atomtab.Table, c Context) *atomtab.Table {
		return RemoveCrystallizationAids(t, c.EntityPolyType)
	}},
}

// StepNames lists the pipeline in order.
func StepNames() []string {
	ret := make([]string, len(Pipeline))
	for i, s := range Pipeline {
		ret[i] = s.Name
	}
	return ret
}

// Run checks the table and applies every step of the pipeline.
// A malformed table is an error and nothing is returned. Otherwise
// the steps cannot fail.
func Run(t *atomtab.Table, ctx Context) (*atomtab.Table, error) {
	if err := t.Check(); err != nil {
		return nil, fmt.Errorf("filter: %w", err)
	}
	for _, s := range Pipeline {
		t = s.Apply(t, ctx)
	}
	return t, nil
}

// keepIf selects rows where f is true.
func keepIf(t *atomtab.Table, f func(i int) bool) *atomtab.Table {
	keep := make([]bool, t.Len())
	for i := range keep {
		keep[i] = f(i)
	}
	return t.Select(keep)
}

// RemoveHydrogens drops hydrogen and deuterium atoms.
func RemoveHydrogens(t *atomtab.Table) *atomtab.Table {
	return keepIf(t, func(i int) bool {
		e := t.Element[i]
		return e != "H" && e != "D"
	})
}

// RemoveWater drops water, HOH, and deuterated water, DOD.
func RemoveWater(t *atomtab.Table) *atomtab.Table {
	return keepIf(t, func(i int) bool {
		r := t.ResName[i]
		return r != "HOH" && r != "DOD"
	})
}

// xMap says how an ambiguous residue is renamed. ASP is more symmetric
// than ASN and GLU more than GLN, so we pick those.
type xMap struct {
	resName string
	atoms   map[string]string
}

var ambiguous = map[string]xMap{
	"ASX": {"ASP", map[string]string{"XD1": "OD1", "XD2": "OD2"}},
	"GLX": {"GLU", map[string]string{"XE1": "OE1", "XE2": "OE2"}},
}

// RemoveElementX deals with residues containing element X.
// UNX (unknown atom or ion) and UNL (unknown ligand) residues are
// removed whole. ASX becomes ASP and GLX becomes GLU, with the X atoms
// renamed to oxygens.
func RemoveElementX(t *atomtab.Table) *atomtab.Table {
	keep := make([]bool, t.Len())
	starts := atomtab.ResidueStarts(t)
	for r := 0; r < len(starts)-1; r++ {
		start, stop := starts[r], starts[r+1]
		rn := t.ResName[start]
		drop := rn == "UNX" || rn == "UNL"
		for i := start; i < stop; i++ {
			keep[i] = !drop
		}
	}
	t = t.Select(keep)

	return t.Map(func(a atomtab.Atom) atomtab.Atom {
		m, ok := ambiguous[a.ResName]
		if !ok {
			return a
		}
		a.ResName = m.resName
		if newName, ok := m.atoms[a.AtomName]; ok {
			a.AtomName = newName
		}
		if a.Element == "X" {
			a.Element = "O"
		}
		return a
	})
}

// CrystallizationAids are small molecules which are usually only there
// because of how the crystal was grown (AlphaFold3 SI, table 9).
var CrystallizationAids = []string{
	"SO4", "GOL", "EDO", "PO4", "ACT", "PEG", "DMS", "TRS",
	"PGE", "PG4", "FMT", "EPE", "MPD", "MES", "CD", "IOD",
}

var aidSet = func() map[string]bool {
	m := make(map[string]bool, len(CrystallizationAids))
	for _, s := range CrystallizationAids {
		m[s] = true
	}
	return m
}()

// IsCrystallizationAid says if a residue name is in the catalog.
func IsCrystallizationAid(resName string) bool { return aidSet[resName] }

// RemoveCrystallizationAids drops crystallization aids, but only on
// chains which are not polymers. An atom stays if its residue is not
// an aid or its entity is in entityPolyType.
func RemoveCrystallizationAids(t *atomtab.Table, entityPolyType map[string]string) *atomtab.Table {
	return keepIf(t, func(i int) bool {
		if !aidSet[t.ResName[i]] {
			return true
		}
		_, poly := entityPolyType[t.EntityID[i]]
		return poly
	})
}
