// Package mmcif reads an mmcif formatted file. It is a subpackage of pdb.
// The first thing to do is build an MmcifReader, say what you want kept
// and then call DoFile.
package mmcif

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andrew-torda/afprep/pkg/atomtab"
)

const (
	squote byte = '\''
	dquote byte = '"'
)

// Usually one reads a file which contains lots of information you are
// not interested in. We handle this in two stages.
// 1. Make a list of interesting data items and tables. If something is
// not on this list, do not save it.
// 2. The atom_site table is always read. It goes straight into an
// atom table. Everything else that was asked for goes into Data or
// Tables.

type bSlice []byte // byte slice
type stSlice []string

// Table is a kept category. Names are the column headings without the
// category prefix, Vals has one entry per row. A category written as
// plain data items, not in a loop, is stored the same way as a table
// with one row.
type Table struct {
	Names []string
	Vals  []stSlice
}

// Col returns the column with the given heading, or nil.
func (t Table) Col(name string) []string {
	for i, n := range t.Names {
		if n == name {
			ret := make([]string, len(t.Vals))
			for j, row := range t.Vals {
				ret[j] = row[i]
			}
			return ret
		}
	}
	return nil
}

// Rows returns the table as one map per row, heading -> value.
func (t Table) Rows() []map[string]string {
	ret := make([]map[string]string, len(t.Vals))
	for j, row := range t.Vals {
		m := make(map[string]string, len(t.Names))
		for i, n := range t.Names {
			m[n] = row[i]
		}
		ret[j] = m
	}
	return ret
}

// MmcifData is what an MmcifReader returns.
type MmcifData struct {
	Data   map[string]string // data items we were asked to keep
	Tables map[string]Table  // tables, keyed by category like "_entity_poly"
	Atoms  *atomtab.Table    // from atom_site, never nil after DoFile
}

// fltr says which atoms we keep.
type fltr struct {
	modelMax int16    // How many models should be read ?
	chains   []string // by label_asym_id. Empty means all
}

// MmcifReader is the object which will do the reading of mmcif data.
// We do not return information here. Here is where we store instructions
// to the reader.
type MmcifReader struct {
	cmmtScanner
	dataToKeep   map[string]bool
	tablesToKeep map[string]bool
	fltr         fltr
	headers      []bSlice
	scrtchBytes  [][]byte
}

// NewMmcifReader returns an object to read mmcif files.
// It is given a reader, so the caller must have decided if it is
// a file, compressed file, http source, whatever.
// By default, only the first model is read and all chains are kept.
func NewMmcifReader(r io.Reader) *MmcifReader {
	if r == nil {
		return nil
	}
	return &MmcifReader{
		cmmtScanner:  newCmmtScanner(r, '#'),
		dataToKeep:   make(map[string]bool),
		tablesToKeep: make(map[string]bool),
		fltr:         fltr{modelMax: 1},
		scrtchBytes:  make([][]byte, 0, 25),
	}
}

// SetChains restricts the atoms we keep to some chains (label_asym_id).
// Empty strings are ignored, so an empty list means everything.
func (mr *MmcifReader) SetChains(s []string) {
	mr.fltr.chains = mr.fltr.chains[:0]
	for _, c := range s {
		if c != "" {
			mr.fltr.chains = append(mr.fltr.chains, c)
		}
	}
}

// AddItems adds data items, like "_entry.id", that we will keep.
func (mr *MmcifReader) AddItems(s []string) {
	for _, a := range s {
		mr.dataToKeep[a] = true
	}
}

// AddTable adds categories, like "_entity_poly", that we will keep
// whether they are written as a loop or as a list of data items.
// A trailing dot is allowed.
func (mr *MmcifReader) AddTable(s []string) {
	for _, a := range s {
		mr.tablesToKeep[strings.TrimSuffix(a, ".")] = true
	}
}

// SetModelMax tells us the maximum number of models to read.
//
//	-1 means get everything
//	 0 means get nothing
//	 a positive int is the number of models, in the order they appear
func (mr *MmcifReader) SetModelMax(modelMax int16) {
	mr.fltr.modelMax = modelMax
}

// cmmtScanner is a wrapper around bufio.Scanner that will skip lines
// starting with a comment character and blank lines.
// It also counts newlines in n, so we can print out the line
// number in error messages.
type cmmtScanner struct {
	*bufio.Scanner           // standard library scanner
	lErr           readError // fill this out as soon as an error happens
	ctoken         []byte    // Store the bytes that will be returned by cbytes()
	n              int       // line number in the mmcif file
	cmmt           byte      // Comment character
	Ok             bool      // Are we OK or have we had an error ?
}

// maxLine is the longest line we accept. Sequences in the entity_poly
// table can be long.
const maxLine = 1024 * 1024

// newCmmtScanner is a wrapper around scanner, but
//   - jumps over blank lines
//   - jumps over lines starting with a comment character
func newCmmtScanner(r io.Reader, cmmt byte) cmmtScanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLine)
	return cmmtScanner{
		Scanner: s,
		cmmt:    cmmt,
		Ok:      true,
	}
}

// cscan is a wrapper around the library Scan(). It adds a newline counter
// for error messages. It jumps over blank lines and lines starting
// with a comment character. Comment characters are only recognised as the
// first character, since they are legitimate elsewhere in the text.
// At EOF it returns true, but ctoken is nil.
func (s *cmmtScanner) cscan() (ok bool) {
	var b []byte
	if !s.Ok { // We have already had an error, but nobody has noticed.
		s.ctoken = nil
		s.fill("pre-existing error missed. Small bug ?", false)
		return false
	}
	for len(b) == 0 {
		if !s.Scan() { // If scan returned false,
			s.ctoken = nil //  but Err() is nil, it is just EOF
			if s.Err() != nil {
				s.fill(s.Err().Error(), true)
				return false
			}
			return true
		}
		s.n++
		b = bytes.TrimRight(s.Bytes(), " \t\r")
		if len(b) > 0 && b[0] == s.cmmt {
			b = nil
		}
	}
	s.ctoken = b
	return true
}

// cbytes is like Bytes from the library, but returns the processed line.
func (s *cmmtScanner) cbytes() []byte {
	return s.ctoken
}

// stateFn is the type of state function. It returns the next
// state function that should act on its input.
type stateFn func(*MmcifReader, *MmcifData) stateFn

// stateData reads lines that start with data_
func stateData(mr *MmcifReader, _ *MmcifData) stateFn {
	if !mr.cscan() {
		return nil
	}
	return stateTop
}

// stateUnknown should be reached if we are confused and do not know
// what to do. It is an error and we should stop
func stateUnknown(mr *MmcifReader, _ *MmcifData) stateFn {
	mr.fill("In Unknown state", true)
	return nil
}

// category takes "_atom_site.Cartn_x" and returns "_atom_site" and
// "Cartn_x". ok is false if there is no dot.
func category(b []byte) (cat, item string, ok bool) {
	i := bytes.IndexByte(b, '.')
	if i < 1 {
		return "", "", false
	}
	return string(b[:i]), string(b[i+1:]), true
}

// stateLoopHdr gets the headers from a loop directive.
// It also gets to make a decision about what to do next.
// atom_site goes to its own state. If the headers are interesting, we
// go to stateLoopTable, otherwise stateSkipLoopTable.
func stateLoopHdr(mr *MmcifReader, _ *MmcifData) stateFn {
	if len(mr.headers) != 0 {
		mr.fill("probable bug, headers slice not empty", false)
		return nil
	}
	for b := mr.cbytes(); len(b) > 0 && b[0] == '_'; b = mr.cbytes() {
		s := make([]byte, len(b))
		copy(s, b)
		mr.headers = append(mr.headers, bytes.TrimSpace(s))
		if !mr.cscan() {
			return nil
		}
	}
	if len(mr.headers) < 1 {
		mr.fill("no contents found while reading loop headers", true)
		return nil
	}
	cat, _, ok := category(mr.headers[0])
	if !ok {
		mr.fill("Could not split string at dot: "+string(mr.headers[0]), true)
		mr.headers = mr.headers[:0]
		return nil
	}
	switch {
	case cat == "_atom_site":
		return stateAtomTable
	case mr.tablesToKeep[cat]:
		return stateLoopTable
	}
	mr.headers = mr.headers[:0]
	return stateSkipLoopTable
}

// isSpecial returns true if the input in inline is not simply
// more of a table. Usually this means there is a new directive
// coming.
// If we have end of file, we also return true, so a caller knows
// it has to do something special.
// We do not stop if we see "data", since this is sometimes present in tables
func isSpecial(inline []byte) bool {
	switch {
	case inline == nil:
		return true
	case inline[0] == '_':
		return true
	case bytes.HasPrefix(inline, []byte("loop_")):
		return true
	default:
		return false
	}
}

// stateLoopTable reads the rows of a table we want and puts it in the
// map of tables.
func stateLoopTable(mr *MmcifReader, md *MmcifData) stateFn {
	ncol := len(mr.headers)
	var table Table
	cat, _, _ := category(mr.headers[0])
	table.Names = make([]string, 0, ncol)
	for _, word := range mr.headers { // given _entity_poly.type, save type
		c, item, ok := category(word)
		if !ok || c != cat {
			mr.fill("mixed or broken loop header: "+string(word), true)
			return nil
		}
		table.Names = append(table.Names, item)
	}
	mr.headers = mr.headers[:0]
	for {
		b, ok := getNpieces(mr, ncol)
		if !ok {
			return nil
		}
		if b == nil {
			break
		}
		if len(b) != ncol {
			mr.fill(fmt.Sprintf("table %s wanted %d values, got %d", cat, ncol, len(b)), true)
			return nil
		}
		table.Vals = append(table.Vals, b)
	}
	md.Tables[cat] = table
	return stateTop
}

// stateSkipLoopTable reads lines from a table, but does not
// save them anywhere. Most of the tables we encounter are not
// to be saved.
func stateSkipLoopTable(mr *MmcifReader, _ *MmcifData) stateFn {
	foundSomething := false
	for ; !isSpecial(mr.cbytes()); mr.cscan() {
		foundSomething = true
		if !mr.Ok {
			return nil
		}
	}
	if !foundSomething {
		mr.fill("empty table", true)
		return nil
	}
	return stateTop
}

// stateLoop is where you are if you have a loop directive.
// You just have to jump over the line and go to reading the
// headers.
func stateLoop(mr *MmcifReader, _ *MmcifData) stateFn {
	if !mr.cscan() {
		return nil
	}
	return stateLoopHdr
}

// textField reads a multi-line value that starts with a semicolon on
// the current line. Lines are joined without newlines, which is what
// we want for sequences. On return, the scanner is on the line after
// the closing semicolon.
func textField(mr *MmcifReader) (string, bool) {
	var sb strings.Builder
	sb.Write(mr.cbytes()[1:])
	for {
		if !mr.cscan() {
			return "", false
		}
		x := mr.cbytes()
		if x == nil {
			mr.fill("unterminated text field", true)
			return "", false
		}
		if x[0] == ';' {
			break
		}
		sb.Write(x)
	}
	return sb.String(), mr.cscan()
}

// stateDItem gets a data item. This is often on one line, but
// the value may be on the next line, or lines if it is a text field.
func stateDItem(mr *MmcifReader, md *MmcifData) stateFn {
	var value string
	t, err := splitCifLine(mr.cbytes(), mr.scrtchBytes)
	if err != nil {
		mr.fill(err.Error(), true)
		return nil
	}
	itemName := string(t[0])
	switch len(t) {
	case 2:
		value = string(t[1])
		if !mr.cscan() {
			return nil
		}
	case 1:
		const msg string = "data split on two lines"
		if !mr.cscan() || mr.cbytes() == nil {
			mr.fill(msg, true)
			return nil
		}
		if b := mr.cbytes(); b[0] == ';' {
			var ok bool
			if value, ok = textField(mr); !ok {
				return nil
			}
		} else {
			u, err := splitCifLine(b, mr.scrtchBytes)
			if err != nil || len(u) != 1 {
				mr.fill(msg, true)
				return nil
			}
			value = string(u[0])
			if !mr.cscan() {
				return nil
			}
		}
	default:
		mr.fill(fmt.Sprintf("data item with %d values", len(t)-1), true)
		return nil
	}

	if mr.dataToKeep[itemName] {
		md.Data[itemName] = value
	}
	if cat, item, ok := category([]byte(itemName)); ok && mr.tablesToKeep[cat] {
		tbl := md.Tables[cat]
		if len(tbl.Vals) == 0 {
			tbl.Vals = []stSlice{nil}
		}
		tbl.Names = append(tbl.Names, item)
		tbl.Vals[0] = append(tbl.Vals[0], value)
		md.Tables[cat] = tbl
	}
	return stateTop
}

// stateTop is the general state that looks at the current line and
// decides what state to jump to next.
func stateTop(mr *MmcifReader, _ *MmcifData) stateFn {
	b := mr.cbytes() // Does not advance scanner
	if !mr.Ok {
		return nil
	}
	switch {
	case b == nil:
		return nil
	case bytes.HasPrefix(b, []byte("loop_")):
		return stateLoop
	case bytes.HasPrefix(b, []byte("data_")):
		return stateData
	case b[0] == '_':
		return stateDItem
	default:
		return stateUnknown
	}
}

// notNasty returns true if we can use the simple split function.
// That is, the line has no quotes.
func notNasty(b []byte) bool {
	return bytes.IndexByte(b, dquote) == -1 && bytes.IndexByte(b, squote) == -1
}

// getNpieces asks the scanner for lines and returns npiece items
// as a slice of strings. We have to use new strings, since
// calls to scan() will update the underlying buffer.
// At the end of the table, ret is nil and ok is true. ok is false only
// if there was an error.
func getNpieces(mr *MmcifReader, npiece int) (ret []string, ok bool) {
	for len(ret) < npiece {
		bIn := mr.cbytes()
		if isSpecial(bIn) {
			if len(ret) != 0 {
				mr.fill(fmt.Sprintf("wanted %d values, table ended after %d", npiece, len(ret)), true)
				return nil, false
			}
			return nil, true
		}
		if bIn[0] == ';' {
			s, ok := textField(mr)
			if !ok {
				return nil, false
			}
			ret = append(ret, s)
			continue
		}
		var t [][]byte
		if notNasty(bIn) { //          For a clean string, just
			t = bytes.Fields(bIn) //    use library function
		} else {
			var err error
			if t, err = splitCifLine(bIn, mr.scrtchBytes); err != nil {
				mr.fill(err.Error(), true)
				return nil, false
			}
		}
		for _, u := range t {
			ret = append(ret, string(u))
		}
		if !mr.cscan() {
			return nil, false
		}
	}
	return ret, true
}

// DoFile parses the whole input.
func (mr *MmcifReader) DoFile() (*MmcifData, error) {
	if mr == nil {
		return nil, errors.New("start of file, nil mmcifReader")
	}
	if !mr.cscan() {
		return nil, mr.lErr
	}
	md := &MmcifData{
		Data:   make(map[string]string),
		Tables: make(map[string]Table),
	}
	for state := stateTop; (state != nil) && mr.Ok; {
		state = state(mr, md)
	}
	if mr.Ok && mr.n == 0 {
		mr.fill("zero length file", false)
	}
	if !mr.Ok {
		return nil, mr.lErr
	}
	if md.Atoms == nil {
		md.Atoms = atomtab.New(0)
	}
	return md, nil
}
