// 16 Oct 2026

// Package ligand finds ligand inputs and breaks them into the units
// that become one job each. An sdf file with several records is split
// into one file per record. A smi file gives one unit per non-empty
// line. Any other sdf or mol file is one unit.
package ligand

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andrew-torda/afprep/pdb/zwrap"
	"github.com/andrew-torda/afprep/pkg/common"
	"github.com/andrew-torda/afprep/pkg/job"
)

var (
	ErrNoSource = errors.New("no ligand source")
	ErrNoFiles  = errors.New("no ligand files found")
)

// Kind goes into the name of job files.
const (
	KindSDF = "sdf"
	KindSMI = "smi"
)

var knownExt = map[string]bool{".sdf": true, ".mol": true, ".smi": true}

// Discover gives the ligand files under path. A file is returned as
// is. A directory is read without recursion and its regular files with
// a known extension are returned, sorted.
func Discover(path string) ([]string, error) {
	if path == "" {
		return nil, ErrNoSource
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoSource, path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	dirents, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSource, err)
	}
	var ret []string
	for _, d := range dirents {
		if !d.Type().IsRegular() {
			continue
		}
		if knownExt[strings.ToLower(filepath.Ext(d.Name()))] {
			ret = append(ret, filepath.Join(path, d.Name()))
		}
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, path)
	}
	sort.Strings(ret)
	return ret, nil
}

// ReadFile reads a ligand file. Compressed files are unpacked.
func ReadFile(path string) ([]byte, error) {
	return zwrap.ReadFile(path)
}

// Item is one ligand unit. If Err is set, the item could not be read
// and should not become a job.
type Item struct {
	Name   string
	Kind   string
	Ligand string // SMILES or FILE_<path>
	Source string // file the item came from
	Err    error
}

// Expand reads one ligand file and gives its items. Records of a multi
// record sdf file are written to partDir as <name>_part_<i>.sdf, where
// name is the file name up to its first dot.
// Problems with the contents are reported in the items, so the only
// errors returned are failures to write the parts.
func Expand(path, partDir string) ([]Item, error) {
	stem := common.BaseName(path)
	data, err := ReadFile(path)
	if err != nil {
		return []Item{{Name: stem, Kind: KindSDF, Source: path, Err: err}}, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".smi":
		return smiItems(path, stem, data), nil
	case ".sdf":
		recs := SplitSDF(data)
		if len(recs) > 1 {
			return sdfParts(path, stem, partDir, recs)
		}
	}
	it := Item{Name: stem, Kind: KindSDF, Source: path}
	if _, err := ParseMolfile(data); err != nil {
		it.Err = err
	} else {
		it.Ligand = fileRef(path)
	}
	return []Item{it}, nil
}

func smiItems(path, stem string, data []byte) []Item {
	var ret []Item
	n := 0
	for _, line := range strings.Split(string(data), "\n") {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		// a smi line may carry a name after the SMILES
		s, _, _ = strings.Cut(s, " ")
		s, _, _ = strings.Cut(s, "\t")
		it := Item{Name: fmt.Sprintf("%s_%d", stem, n), Kind: KindSMI, Source: path}
		if err := CheckSMILES(s); err != nil {
			it.Err = fmt.Errorf("line %d: %w", n, err)
		} else {
			it.Ligand = s
		}
		ret = append(ret, it)
		n++
	}
	if len(ret) == 0 {
		ret = append(ret, Item{Name: stem, Kind: KindSMI, Source: path, Err: errors.New("no SMILES in file")})
	}
	return ret
}

func sdfParts(path, stem, partDir string, recs [][]byte) ([]Item, error) {
	if err := os.MkdirAll(partDir, 0755); err != nil {
		return nil, err
	}
	ret := make([]Item, 0, len(recs))
	for i, rec := range recs {
		name := fmt.Sprintf("%s_part_%d", stem, i)
		it := Item{Name: name, Kind: KindSDF, Source: path}
		if _, err := ParseMolfile(rec); err != nil {
			it.Err = fmt.Errorf("record %d: %w", i, err)
			ret = append(ret, it)
			continue
		}
		part := filepath.Join(partDir, name+".sdf")
		if err := os.WriteFile(part, rec, 0644); err != nil {
			return nil, err
		}
		it.Ligand = fileRef(part)
		ret = append(ret, it)
	}
	return ret, nil
}

// fileRef makes the ligand string for a file. The path is made
// absolute, since the runner does not start where we are.
func fileRef(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return job.FilePrefix + path
}
