// 17 Oct 2026

// Package batch builds job files for a set of proteins and many ligands
// and runs them through the model one after another.
package batch

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/andrew-torda/afprep/pkg/common"
	"github.com/andrew-torda/afprep/pkg/job"
	"github.com/andrew-torda/afprep/pkg/ligand"
	"github.com/andrew-torda/afprep/pkg/msa"
)

// ErrNoProteins is returned when the catalog has no sequences.
var ErrNoProteins = errors.New("no protein chains")

// Options for Generate.
type Options struct {
	TmpRoot    string // run directories go under here, default os.TempDir()
	Seeds      []int  // default job.DefaultSeed
	RequireMSA bool   // every protein must have an alignment directory
	Log        *log.Logger
}

// Generated says what Generate did. Parts of split sdf files are in
// RunDir, job files in JSONDir.
type Generated struct {
	RunDir  string
	JSONDir string
	Files   []string
	Invalid []ligand.Item
}

func hexID() string { return strings.ReplaceAll(uuid.NewString(), "-", "") }

// Generate writes one job file for each ligand unit found under
// ligandPath. Each job has all the proteins of the catalog, in catalog
// order, followed by the one ligand. Ligands which cannot be read are
// left out and listed in Invalid. Having no proteins or no ligand files
// is an error.
func Generate(cat *msa.Catalog, ligandPath string, opts Options) (*Generated, error) {
	logger := common.OrDiscard(opts.Log)
	if cat.Len() == 0 {
		return nil, fmt.Errorf("%w: %w", ErrNoProteins, msa.ErrEmpty)
	}
	files, err := ligand.Discover(ligandPath)
	if err != nil {
		return nil, err
	}
	seeds := opts.Seeds
	if len(seeds) == 0 {
		seeds = []int{job.DefaultSeed}
	}
	if opts.RequireMSA {
		whole := job.Descriptor{Name: "catalog", Sequences: cat.ProteinChains()}
		if err := cat.Validate(whole); err != nil {
			return nil, err
		}
	}

	root := opts.TmpRoot
	if root == "" {
		root = os.TempDir()
	}
	id := hexID()
	runDir := filepath.Join(root, time.Now().Format("2006-01-02"), id)
	g := &Generated{RunDir: runDir, JSONDir: runDir + "_jsons"}
	for _, d := range []string{g.RunDir, g.JSONDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, err
		}
	}

	for _, f := range files {
		items, err := ligand.Expand(f, g.RunDir)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			if it.Err != nil {
				logger.Printf("%s: %s: %v", it.Source, it.Name, it.Err)
				g.Invalid = append(g.Invalid, it)
				continue
			}
			d := job.Descriptor{
				Sequences:  append(cat.ProteinChains(), job.Chain{Ligand: &job.Ligand{Ligand: it.Ligand, Count: 1}}),
				ModelSeeds: append([]int(nil), seeds...),
				Name:       it.Name,
			}
			if err := d.Check(); err != nil {
				return nil, err
			}
			fname := filepath.Join(g.JSONDir, fmt.Sprintf("%s_%s_%s.json", it.Name, it.Kind, hexID()))
			if err := job.WriteFile(fname, []job.Descriptor{d}); err != nil {
				return nil, err
			}
			g.Files = append(g.Files, fname)
		}
	}
	logger.Printf("%d job files written to %s", len(g.Files), g.JSONDir)
	if n := len(g.Invalid); n > 0 {
		logger.Printf("%d ligand items are invalid, one of them is %s (%s)", n, g.Invalid[0].Name, g.Invalid[0].Source)
	}
	return g, nil
}
