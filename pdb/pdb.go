// This is the upper level for reading structure files.
// Decide if a file is compressed or not, and what format
// we are going to read. Then call the mmcif reader and turn what it
// found into a Structure.

package pdb

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/andrew-torda/afprep/pdb/cmmn"
	"github.com/andrew-torda/afprep/pdb/mmcif"
	"github.com/andrew-torda/afprep/pdb/zwrap"
	"github.com/andrew-torda/afprep/pkg/atomtab"
)

const (
	oldFmt byte = iota
	mmcifFmt
	unkFmt
)

// ErrOldFormat is returned for files in the old PDB format. We
// recognise them, but do not read them.
var ErrOldFormat = errors.New("old PDB format is not supported, convert to mmcif")

// Structure is what we keep from a file.
type Structure struct {
	ID             string
	Title          string
	Atoms          *atomtab.Table
	EntityPolyType map[string]string // entity id -> "polypeptide(L)", ...
	EntityPolySeq  map[string]string // entity id -> canonical one letter sequence
	Copies         map[string]int    // chain (label_asym_id) -> copies in the assembly
}

// Options controls reading. The zero value reads the first model of
// the asymmetric unit and picks the first alternate location.
type Options struct {
	AltLoc     string // atomtab.AltLocFirst, AltLocAll or a single letter
	AssemblyID string // "" for the asymmetric unit
	ModelMax   int16  // 0 means 1, -1 means all
	Chains     []string
	Mirror     int         // which download site for HTTPSrc
	Log        *log.Logger // may be nil
}

// comparefirst says if two words are the same, looking at
// the length of the shorter
func comparefirst(s, t string) bool {
	l := len(s)
	if len(t) < l {
		l = len(t)
	}
	return l > 0 && s[:l] == t[:l]
}

// lookInFile opens a file and guesses if it is in old PDB format or
// in mmcif.
func lookInFile(fname string) (byte, error) {
	pdbWords := []string{"HEADER", "COMPND", "SOURCE", "REMARK", "SEQRES", "HETATM", "ATOM  "}
	mmcifWords := []string{"data_", "_entry.id", "loop_"}
	rdr, err := zwrap.Open(fname)
	if err != nil {
		return unkFmt, err
	}
	defer rdr.Close()

	const maxTestLines = 5000
	scnnr := bufio.NewScanner(rdr)
	for i := 0; scnnr.Scan() && i < maxTestLines; i++ {
		s := scnnr.Text()
		for _, w := range mmcifWords {
			if len(s) >= len(w) && comparefirst(s, w) {
				return mmcifFmt, nil
			}
		}
		for _, w := range pdbWords {
			if len(s) >= len(w) && comparefirst(s, w) {
				return oldFmt, nil
			}
		}
	}
	return unkFmt, errors.New(fname + ": cannot recognise format")
}

// oldOrMmcif decides what format we will use.
// It uses the file name if it can, otherwise it peeks inside.
// We cannot use the function from filepath to get the file type,
// since it will return .gz if we feed it a.pdb.gz.
func oldOrMmcif(fname string) (byte, error) {
	s := filepath.Base(fname)
	if i := strings.IndexByte(s, '.'); i != -1 {
		s = strings.ToLower(s[i+1:]) // change .ent to ent
		switch {
		case strings.Contains(s, "cif"):
			return mmcifFmt, nil
		case strings.Contains(s, "pdb") || strings.Contains(s, "ent"):
			return oldFmt, nil
		}
	}
	return lookInFile(fname)
}

// wanted are the data items and tables we ask the mmcif reader for
var (
	wantedItems = []string{
		"_entry.id",
		"_struct.title",
	}
	wantedTables = []string{
		"_entity_poly",
		"_pdbx_struct_assembly_gen",
	}
)

// ReadStructure reads coordinates from a file (cmmn.FileSrc) or
// downloads them (cmmn.HTTPSrc, name is then a four letter code).
func ReadStructure(name string, srcType byte, opts Options) (*Structure, error) {
	var rdr io.ReadCloser
	switch srcType {
	case cmmn.FileSrc:
		typ, err := oldOrMmcif(name)
		if err != nil {
			return nil, err
		}
		if typ == oldFmt {
			return nil, fmt.Errorf("%s: %w", name, ErrOldFormat)
		}
		if rdr, err = zwrap.Open(name); err != nil {
			return nil, err
		}
	case cmmn.HTTPSrc:
		var err error
		if rdr, err = getHTTP(name, opts.Mirror); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown source type %d", srcType)
	}
	defer rdr.Close()
	st, err := Read(rdr, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if st.ID == "" {
		st.ID = stem(name)
	}
	return st, nil
}

// stem is the file name without directories or any extensions.
func stem(name string) string {
	s := filepath.Base(name)
	if i := strings.IndexByte(s, '.'); i > 0 {
		s = s[:i]
	}
	return s
}

// Read reads an mmcif stream.
func Read(r io.Reader, opts Options) (*Structure, error) {
	logger := opts.Log
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	mr := mmcif.NewMmcifReader(r)
	if mr == nil {
		return nil, errors.New("nil reader")
	}
	mr.AddItems(wantedItems)
	mr.AddTable(wantedTables)
	mr.SetChains(opts.Chains)
	if opts.ModelMax != 0 {
		mr.SetModelMax(opts.ModelMax)
	}
	md, err := mr.DoFile()
	if err != nil {
		return nil, err
	}

	st := &Structure{
		ID:             md.Data["_entry.id"],
		Title:          md.Data["_struct.title"],
		EntityPolyType: make(map[string]string),
		EntityPolySeq:  make(map[string]string),
	}
	poly := md.Tables["_entity_poly"]
	ids := poly.Col("entity_id")
	types := poly.Col("type")
	seqs := poly.Col("pdbx_seq_one_letter_code_can")
	for i, id := range ids {
		if types != nil {
			st.EntityPolyType[id] = types[i]
		}
		if seqs != nil {
			st.EntityPolySeq[id] = strings.Join(strings.Fields(seqs[i]), "")
		}
	}

	altloc := opts.AltLoc
	if altloc == "" {
		altloc = atomtab.AltLocFirst
	}
	if st.Atoms, err = atomtab.SelectAltLoc(md.Atoms, altloc); err != nil {
		return nil, err
	}
	gen := md.Tables["_pdbx_struct_assembly_gen"].Rows()
	if st.Atoms, st.Copies, err = applyAssembly(st.Atoms, gen, opts.AssemblyID); err != nil {
		return nil, err
	}
	logger.Printf("%s: %d atoms kept of %d read, %d polymer entities",
		st.ID, st.Atoms.Len(), md.Atoms.Len(), len(st.EntityPolyType))
	return st, nil
}

// Chains returns the chain identifiers in the order they first appear.
func (st *Structure) Chains() []string {
	var ret []string
	seen := make(map[string]bool)
	for _, c := range st.Atoms.ChainID {
		if !seen[c] {
			seen[c] = true
			ret = append(ret, c)
		}
	}
	return ret
}
