// 18 Oct 2026

// Package tojson turns a structure file into a job file. The structure
// is cleaned with the filter pipeline. Each entity that survives
// becomes one entry, counted once for every chain (and every copy in
// the assembly) it has.
package tojson

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/TuftsBCB/seq"

	"github.com/andrew-torda/afprep/pdb"
	"github.com/andrew-torda/afprep/pdb/cmmn"
	"github.com/andrew-torda/afprep/pkg/atomtab"
	"github.com/andrew-torda/afprep/pkg/common"
	"github.com/andrew-torda/afprep/pkg/filter"
	"github.com/andrew-torda/afprep/pkg/job"
)

// CCDPrefix marks a ligand given by chemical component codes.
const CCDPrefix = "CCD_"

// ErrNoChains is returned when filtering leaves nothing.
var ErrNoChains = errors.New("no chains left after filtering")

type Options struct {
	Read  pdb.Options
	Seeds []int
	Log   *log.Logger
}

var aminoMap = map[string]seq.Residue{
	"ALA": 'A', "ARG": 'R', "ASN": 'N', "ASP": 'D', "CYS": 'C',
	"GLU": 'E', "GLN": 'Q', "GLY": 'G', "HIS": 'H', "ILE": 'I',
	"LEU": 'L', "LYS": 'K', "MET": 'M', "PHE": 'F', "PRO": 'P',
	"SER": 'S', "THR": 'T', "TRP": 'W', "TYR": 'Y', "VAL": 'V',
	"MSE": 'M', "SEC": 'U', "PYL": 'O',
}

var deoxyMap = map[string]seq.Residue{
	"DA": 'A', "DC": 'C', "DG": 'G', "DT": 'T', "DI": 'I', "DU": 'U',
}

var riboMap = map[string]seq.Residue{
	"A": 'A', "C": 'C', "G": 'G', "U": 'U', "I": 'I',
}

type polyKind int

const (
	notPoly polyKind = iota
	protein
	dna
	rna
	otherPoly // hybrids, peptide nucleic acid, "other"
)

func kindOf(polyType string) polyKind {
	switch polyType {
	case "":
		return notPoly
	case "polypeptide(L)", "polypeptide(D)":
		return protein
	case "polydeoxyribonucleotide":
		return dna
	case "polyribonucleotide":
		return rna
	}
	return otherPoly
}

// chain is the atoms of one chain, seen as residues.
type chain struct {
	id       string
	entity   string
	resNames []string
}

// chains groups the table by chain, in order of first appearance.
func chains(t *atomtab.Table) []*chain {
	var ret []*chain
	byID := make(map[string]*chain)
	starts := atomtab.ResidueStarts(t)
	for _, s := range starts[:len(starts)-1] {
		id := t.ChainID[s]
		c, ok := byID[id]
		if !ok {
			c = &chain{id: id, entity: t.EntityID[s]}
			byID[id] = c
			ret = append(ret, c)
		}
		c.resNames = append(c.resNames, t.ResName[s])
	}
	return ret
}

// sequence makes a one letter sequence from residue names, X for
// anything unknown.
func sequence(resNames []string, m map[string]seq.Residue) string {
	rs := make([]seq.Residue, len(resNames))
	for i, r := range resNames {
		if v, ok := m[r]; ok {
			rs[i] = v
		} else {
			rs[i] = 'X'
		}
	}
	return string(rs)
}

// entity collects what is written out for one entity.
type entity struct {
	kind  polyKind
	value string // sequence or ligand string
	count int
}

// Convert filters a structure and builds its descriptor. Polymer
// sequences come from the entity_poly table and are only built from
// residue names if that is missing. Polymers of a type the job file
// cannot describe are left out with a warning.
func Convert(st *pdb.Structure, opts Options) (job.Descriptor, error) {
	logger := common.OrDiscard(opts.Log)
	t, err := filter.Run(st.Atoms, filter.Context{EntityPolyType: st.EntityPolyType})
	if err != nil {
		return job.Descriptor{}, fmt.Errorf("%s: %w", st.ID, err)
	}
	var order []*entity
	byKey := make(map[string]*entity)
	skipped := make(map[string]bool)
	for _, c := range chains(t) {
		kind := kindOf(st.EntityPolyType[c.entity])
		if kind == otherPoly {
			if !skipped[c.entity] {
				skipped[c.entity] = true
				logger.Printf("%s: entity %s is %q, not written", st.ID, c.entity, st.EntityPolyType[c.entity])
			}
			continue
		}
		e := &entity{kind: kind}
		switch kind {
		case protein:
			e.value = polySeq(st, c, aminoMap)
		case dna:
			e.value = polySeq(st, c, deoxyMap)
		case rna:
			e.value = polySeq(st, c, riboMap)
		default:
			e.value = CCDPrefix + strings.Join(c.resNames, "_")
		}
		key := fmt.Sprintf("%d %s %s", kind, c.entity, e.value)
		if old, ok := byKey[key]; ok {
			e = old
		} else {
			byKey[key] = e
			order = append(order, e)
		}
		n := 1
		if st.Copies != nil {
			if cp, ok := st.Copies[c.id]; ok {
				n = cp
			}
		}
		e.count += n
	}
	if len(order) == 0 {
		return job.Descriptor{}, fmt.Errorf("%s: %w", st.ID, ErrNoChains)
	}

	d := job.Descriptor{Name: st.ID, ModelSeeds: opts.Seeds}
	if len(d.ModelSeeds) == 0 {
		d.ModelSeeds = []int{job.DefaultSeed}
	}
	for _, e := range order {
		if e.count == 0 {
			continue
		}
		var ch job.Chain
		switch e.kind {
		case protein:
			ch.ProteinChain = &job.ProteinChain{Sequence: e.value, Count: e.count}
		case dna:
			ch.DNASequence = &job.NucleicChain{Sequence: e.value, Count: e.count}
		case rna:
			ch.RNASequence = &job.NucleicChain{Sequence: e.value, Count: e.count}
		default:
			ch.Ligand = &job.Ligand{Ligand: e.value, Count: e.count}
		}
		d.Sequences = append(d.Sequences, ch)
	}
	if err := d.Check(); err != nil {
		return job.Descriptor{}, err
	}
	return d, nil
}

func polySeq(st *pdb.Structure, c *chain, m map[string]seq.Residue) string {
	if s := st.EntityPolySeq[c.entity]; s != "" {
		return s
	}
	return sequence(c.resNames, m)
}

// ConvertFile reads a structure file and writes <outDir>/<stem>.json.
// The name of the new file is returned.
func ConvertFile(in, outDir string, opts Options) (string, error) {
	if opts.Read.Log == nil {
		opts.Read.Log = opts.Log
	}
	st, err := pdb.ReadStructure(in, cmmn.FileSrc, opts.Read)
	if err != nil {
		return "", err
	}
	d, err := Convert(st, opts)
	if err != nil {
		return "", err
	}
	out := filepath.Join(outDir, common.Stem(in)+".json")
	if strings.HasSuffix(in, ".gz") {
		out = filepath.Join(outDir, common.Stem(common.Stem(in))+".json")
	}
	if err := job.WriteFile(out, []job.Descriptor{d}); err != nil {
		return "", err
	}
	common.OrDiscard(opts.Log).Printf("%s: %d entities written to %s", st.ID, len(d.Sequences), out)
	return out, nil
}
