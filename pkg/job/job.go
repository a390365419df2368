// 14 Oct 2026

// Package job has the job file format given to the inference runner.
// A job file is a JSON array of descriptors. Each descriptor names a
// set of chains (proteins with their alignments, ligands, nucleic acids),
// the random seeds and a name.
//
//	[{
//	    "sequences": [
//	        {"proteinChain": {"sequence": "MKV...", "count": 1,
//	            "msa": {"precomputed_msa_dir": "/a", "pairing_db": "uniref100"}}},
//	        {"ligand": {"ligand": "FILE_/tmp/x.sdf", "count": 1}}
//	    ],
//	    "modelSeeds": [101],
//	    "name": "x"
//	}]
package job

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FilePrefix marks a ligand given as a file rather than SMILES.
const FilePrefix = "FILE_"

// DefaultSeed is used when the caller gives no seeds.
const DefaultSeed = 101

// PairingDB is the database the pairing alignments come from.
const PairingDB = "uniref100"

// MSA says where the precomputed alignments for a protein chain are.
type MSA struct {
	PrecomputedMSADir string `json:"precomputed_msa_dir"`
	PairingDB         string `json:"pairing_db"`
}

type ProteinChain struct {
	Sequence string `json:"sequence"`
	Count    int    `json:"count"`
	MSA      *MSA   `json:"msa,omitempty"`
}

type Ligand struct {
	Ligand string `json:"ligand"` // SMILES, FILE_<path> or CCD_<code>
	Count  int    `json:"count"`
}

type NucleicChain struct {
	Sequence string `json:"sequence"`
	Count    int    `json:"count"`
}

// Chain is one entry of "sequences". Exactly one field is set.
type Chain struct {
	ProteinChain *ProteinChain `json:"proteinChain,omitempty"`
	Ligand       *Ligand       `json:"ligand,omitempty"`
	DNASequence  *NucleicChain `json:"dnaSequence,omitempty"`
	RNASequence  *NucleicChain `json:"rnaSequence,omitempty"`
}

// Descriptor is one inference request.
type Descriptor struct {
	Sequences  []Chain `json:"sequences"`
	ModelSeeds []int   `json:"modelSeeds"`
	Name       string  `json:"name"`
}

// Proteins returns the protein chains in order.
func (d Descriptor) Proteins() []*ProteinChain {
	var ret []*ProteinChain
	for _, c := range d.Sequences {
		if c.ProteinChain != nil {
			ret = append(ret, c.ProteinChain)
		}
	}
	return ret
}

// Check looks for entries with no or several kinds set and for
// counts below one.
func (d Descriptor) Check() error {
	if d.Name == "" {
		return errors.New("job has no name")
	}
	for i, c := range d.Sequences {
		n := 0
		count := 0
		if c.ProteinChain != nil {
			n++
			count = c.ProteinChain.Count
		}
		if c.Ligand != nil {
			n++
			count = c.Ligand.Count
		}
		if c.DNASequence != nil {
			n++
			count = c.DNASequence.Count
		}
		if c.RNASequence != nil {
			n++
			count = c.RNASequence.Count
		}
		if n != 1 {
			return fmt.Errorf("job %s, entry %d: %d kinds of chain", d.Name, i, n)
		}
		if count < 1 {
			return fmt.Errorf("job %s, entry %d: count %d", d.Name, i, count)
		}
	}
	return nil
}

// HasMSA says if every protein chain carries an alignment reference.
// RNA, DNA and ligands need none, so a descriptor without protein
// chains passes.
func (d Descriptor) HasMSA() bool {
	for _, c := range d.Proteins() {
		if c.MSA == nil || c.MSA.PrecomputedMSADir == "" {
			return false
		}
	}
	return true
}

// Marshal gives the job file contents, indented by four spaces.
func Marshal(jobs []Descriptor) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(jobs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes a job file, making the directory if needed.
func WriteFile(path string, jobs []Descriptor) error {
	b, err := Marshal(jobs)
	if err != nil {
		return fmt.Errorf("job file %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// ReadFile reads a job file.
func ReadFile(path string) ([]Descriptor, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var jobs []Descriptor
	if err := json.Unmarshal(b, &jobs); err != nil {
		return nil, fmt.Errorf("job file %s: %w", path, err)
	}
	return jobs, nil
}

// HasMSA reads a job file and says if every descriptor in it has its
// alignments. A missing or unreadable file is an error, not false.
func HasMSA(path string) (bool, error) {
	jobs, err := ReadFile(path)
	if err != nil {
		return false, err
	}
	for _, d := range jobs {
		if !d.HasMSA() {
			return false, nil
		}
	}
	return true, nil
}
