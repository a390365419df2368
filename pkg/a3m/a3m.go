// 15 Oct 2026

// Package a3m reads and writes alignments in a3m format, as written by
// an mmseqs/colabfold search, and does the post-processing needed
// before an alignment can be used for pairing.
//
// The search output has the query first, then the hits against the
// UniRef database, then the query again, followed by hits from the
// environmental databases. UnirefIndex marks where the query reappears.
package a3m

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/TuftsBCB/io/msa"
	"github.com/TuftsBCB/seq"
	"github.com/edsrzf/mmap-go"
)

const cmmtChar = '>'

// Alignment is the contents of one a3m file. Entries are kept the way
// seq.MSA keeps them, so insert columns are padded with '.'.
type Alignment struct {
	seq.MSA
	UnirefIndex int // entry where the query header repeats, 0 if it does not
}

// ID is the first tab separated field of a header.
func ID(name string) string {
	id, _, _ := strings.Cut(name, "\t")
	return id
}

// Seq is entry i as it appears in an a3m file.
func (a *Alignment) Seq(i int) string {
	return string(a.GetA3M(i).Residues)
}

// Read reads an a3m file. Sequences may be spread over several lines.
// Blank lines and the NUL bytes that separate entries in colabfold
// databases are ignored.
func Read(r io.Reader) (*Alignment, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m, err := msa.Read(bytes.NewReader(bytes.ReplaceAll(b, []byte{0}, nil)))
	if err != nil {
		return nil, fmt.Errorf("a3m: %w", err)
	}
	if len(m.Entries) == 0 {
		return nil, errors.New("a3m: no sequences")
	}
	a := &Alignment{MSA: m}
	for i := 1; i < len(m.Entries); i++ {
		if m.Entries[i].Name == m.Entries[0].Name {
			a.UnirefIndex = i
			break
		}
	}
	return a, nil
}

// Query is the first entry.
func (a *Alignment) Query() seq.Sequence { return a.GetA3M(0) }

// Write writes the alignment with one line per sequence.
func Write(w io.Writer, a *Alignment) error {
	return msa.WriteA3M(w, a.MSA)
}

// ReadM8 reads the taxonomy hits table (uniref_tax.m8). Columns are
// tab separated. The second is the hit name and the third its NCBI
// taxonomy id.
func ReadM8(r io.Reader) (map[string]string, error) {
	ret := make(map[string]string)
	scnr := bufio.NewScanner(r)
	for n := 1; scnr.Scan(); n++ {
		line := strings.TrimRight(scnr.Text(), "\r")
		if line == "" {
			continue
		}
		f := strings.Split(line, "\t")
		if len(f) < 3 {
			return nil, fmt.Errorf("m8 line %d: %d columns, want at least 3", n, len(f))
		}
		ret[f[1]] = f[2]
	}
	return ret, scnr.Err()
}

const unirefPrefix = "UniRef100_"

// AddTaxID puts the taxonomy id into the headers of UniRef hits, so
// pairing can find sequences from the same species. Only entries
// before UnirefIndex are touched. The id becomes
// UniRef100_<id>_<taxid>/, without doubling the prefix.
func (a *Alignment) AddTaxID(taxids map[string]string) {
	for i := 0; i < a.UnirefIndex && i < len(a.Entries); i++ {
		s := &a.Entries[i]
		id := ID(s.Name)
		tax, ok := taxids[id]
		if !ok {
			continue
		}
		newID := id + "_" + tax + "/"
		if !strings.HasPrefix(id, unirefPrefix) {
			newID = unirefPrefix + newID
		}
		s.Name = newID + s.Name[len(id):]
	}
}

// SplitUniref splits the hits into UniRef100 hits and the rest. Both
// start with an entry named "query" holding querySeq. If querySeq is
// empty, the sequence of the first entry is used. The first of the
// other hits is the repeated query and is dropped.
func (a *Alignment) SplitUniref(querySeq string) (uniref, other *Alignment) {
	if querySeq == "" {
		querySeq = a.Seq(0)
	}
	q := seq.NewSequenceString("query", querySeq)
	uniref = &Alignment{MSA: seq.NewMSA()}
	other = &Alignment{MSA: seq.NewMSA()}
	uniref.Add(q)
	other.Add(q)
	seenQuery := false
	for i := 1; i < len(a.Entries); i++ {
		s := a.GetA3M(i)
		switch {
		case strings.HasPrefix(s.Name, unirefPrefix):
			uniref.Add(s)
		case !seenQuery:
			seenQuery = true
		default:
			other.Add(s)
		}
	}
	return uniref, other
}

// CountFile counts the records in an a3m file without parsing it. The
// search results can be large, so the file is mapped, not read.
func CountFile(fname string) (int, error) {
	fp, err := os.Open(fname)
	if err != nil {
		return 0, err
	}
	defer fp.Close()
	info, err := fp.Stat()
	if err != nil {
		return 0, err
	}
	if info.Size() == 0 {
		return 0, nil // mmap of nothing is an error
	}
	mm, err := mmap.Map(fp, mmap.RDONLY, 0)
	if err != nil {
		return 0, err
	}
	defer mm.Unmap()
	n := bytes.Count(mm, []byte{'\n', cmmtChar})
	if mm[0] == cmmtChar {
		n++
	}
	return n, nil
}
