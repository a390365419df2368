// 15 Oct 2026

// Package msa keeps track of precomputed alignments. A Catalog maps a
// protein sequence to the directory with its alignment results. The
// sequence is the key, compared exactly, with no change of case and no
// trimming.
package msa

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/andrew-torda/afprep/pkg/job"
)

var (
	// ErrEmpty is returned when a catalog with no entries is used to
	// build jobs.
	ErrEmpty = errors.New("alignment catalog is empty")
	// ErrMissingMSA is wrapped by Validate.
	ErrMissingMSA = errors.New("missing alignment")
)

// Entry is one sequence and where its alignment lives.
type Entry struct {
	Sequence  string
	Dir       string
	PairingDB string
	Count     int
}

// Catalog keeps entries in the order they were added.
type Catalog struct {
	entries []Entry
	index   map[string]int
}

// NewCatalog builds a catalog. Count defaults to 1 and PairingDB to
// job.PairingDB. A sequence may only appear once.
func NewCatalog(entries ...Entry) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		if err := c.add(e); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) add(e Entry) error {
	if e.Sequence == "" {
		return errors.New("catalog entry with empty sequence")
	}
	if _, dup := c.index[e.Sequence]; dup {
		return fmt.Errorf("sequence %s is in the catalog twice", short(e.Sequence))
	}
	if e.Count == 0 {
		e.Count = 1
	}
	if e.Count < 0 {
		return fmt.Errorf("sequence %s: count %d", short(e.Sequence), e.Count)
	}
	if e.PairingDB == "" {
		e.PairingDB = job.PairingDB
	}
	c.index[e.Sequence] = len(c.entries)
	c.entries = append(c.entries, e)
	return nil
}

// short trims a sequence for messages.
func short(s string) string {
	const n = 20
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

// jsonEntry is the value side of the catalog file
//
//	{"MKV...": {"precomputed_msa_dir": "/a", "pairing_db": "uniref100", "count": 2}}
type jsonEntry struct {
	Dir       string `json:"precomputed_msa_dir"`
	PairingDB string `json:"pairing_db"`
	Count     int    `json:"count"`
}

// LoadCatalog reads a catalog as a JSON object. The order of the keys
// is kept, since it decides the order of chains in the jobs.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("catalog should be a JSON object")
	}
	c, _ := NewCatalog()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading catalog: %w", err)
		}
		seq, _ := tok.(string)
		var je jsonEntry
		if err := dec.Decode(&je); err != nil {
			return nil, fmt.Errorf("catalog entry %s: %w", short(seq), err)
		}
		e := Entry{Sequence: seq, Dir: je.Dir, PairingDB: je.PairingDB, Count: je.Count}
		if err := c.add(e); err != nil {
			return nil, err
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return c, nil
}

// LoadCatalogFile reads a catalog from a file.
func LoadCatalogFile(path string) (*Catalog, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	c, err := LoadCatalog(fp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Lookup finds the entry for a sequence by exact match.
func (c *Catalog) Lookup(seq string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	i, ok := c.index[seq]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Entries returns a copy of the entries, in order.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	return append([]Entry(nil), c.entries...)
}

// Len is the number of entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// ProteinChains turns the catalog into protein chain entries for a
// job, in catalog order. Each call gives new values, so jobs do not
// share chains.
func (c *Catalog) ProteinChains() []job.Chain {
	ret := make([]job.Chain, 0, c.Len())
	for _, e := range c.Entries() {
		ret = append(ret, job.Chain{ProteinChain: &job.ProteinChain{
			Sequence: e.Sequence,
			Count:    e.Count,
			MSA:      &job.MSA{PrecomputedMSADir: e.Dir, PairingDB: e.PairingDB},
		}})
	}
	return ret
}

// Validate checks that every protein chain in d has an entry with an
// alignment directory. A descriptor with no proteins fails.
func (c *Catalog) Validate(d job.Descriptor) error {
	p := d.Proteins()
	if len(p) == 0 {
		return fmt.Errorf("job %s: %w: no protein chains", d.Name, ErrMissingMSA)
	}
	for _, pc := range p {
		e, ok := c.Lookup(pc.Sequence)
		if !ok {
			return fmt.Errorf("job %s: %w: no catalog entry for %s", d.Name, ErrMissingMSA, pc.Sequence)
		}
		if e.Dir == "" {
			return fmt.Errorf("job %s: %w: empty directory for %s", d.Name, ErrMissingMSA, pc.Sequence)
		}
	}
	return nil
}
