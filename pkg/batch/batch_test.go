package batch_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/andrew-torda/afprep/pkg/batch"
	"github.com/andrew-torda/afprep/pkg/job"
	"github.com/andrew-torda/afprep/pkg/ligand"
	"github.com/andrew-torda/afprep/pkg/msa"
	"github.com/andrew-torda/afprep/pkg/runner"
)

const mol = `m
  test

  2  1  0  0  0  0  0  0  0  0999 V2000
    0.0000    0.0000    0.0000 C   0  0  0  0  0  0  0  0  0  0  0  0
    1.4000    0.0000    0.0000 O   0  0  0  0  0  0  0  0  0  0  0  0
  1  2  1  0
M  END
$$$$
`

func catalog(t *testing.T, js string) *msa.Catalog {
	t.Helper()
	c, err := msa.LoadCatalog(strings.NewReader(js))
	require.NoError(t, err)
	return c
}

const abcde = `{"ABCDE": {"precomputed_msa_dir": "/a", "pairing_db": "uniref100"}}`

func wrt(t *testing.T, dir, name, s string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(s), 0644))
}

func TestGenerateTwoRecordSDF(t *testing.T) {
	lig := t.TempDir()
	wrt(t, lig, "pair.sdf", mol+mol)
	g, err := Generate(catalog(t, abcde), lig, Options{TmpRoot: t.TempDir()})
	require.NoError(t, err)
	require.Len(t, g.Files, 2)
	require.Empty(t, g.Invalid)
	require.True(t, strings.HasSuffix(g.JSONDir, filepath.Base(g.RunDir)+"_jsons"))

	ligands := map[string]bool{}
	for _, f := range g.Files {
		require.Equal(t, g.JSONDir, filepath.Dir(f))
		require.Contains(t, filepath.Base(f), "_sdf_")
		jobs, err := job.ReadFile(f)
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		d := jobs[0]
		require.Equal(t, []int{101}, d.ModelSeeds)
		require.Len(t, d.Sequences, 2)
		p := d.Sequences[0].ProteinChain
		require.Equal(t, "ABCDE", p.Sequence)
		require.Equal(t, 1, p.Count)
		require.Equal(t, &job.MSA{PrecomputedMSADir: "/a", PairingDB: "uniref100"}, p.MSA)
		l := d.Sequences[1].Ligand
		require.Equal(t, 1, l.Count)
		require.True(t, strings.HasPrefix(l.Ligand, job.FilePrefix+g.RunDir))
		ligands[l.Ligand] = true
	}
	require.Len(t, ligands, 2, "distinct ligand per job")
}

func TestGenerateSMILES(t *testing.T) {
	lig := t.TempDir()
	wrt(t, lig, "many.smi", "CCO\nc1ccccc1\n\nCC(=O)O\nC1CC\n")
	cat := catalog(t, `{"MKV": {"precomputed_msa_dir": "/m", "count": 2}, "GGG": {"precomputed_msa_dir": "/g"}}`)
	g, err := Generate(cat, filepath.Join(lig, "many.smi"), Options{TmpRoot: t.TempDir(), Seeds: []int{1, 2}})
	require.NoError(t, err)
	require.Len(t, g.Files, 3)
	require.Len(t, g.Invalid, 1)
	require.Equal(t, "many_3", g.Invalid[0].Name)

	var names []string
	for _, f := range g.Files {
		jobs, err := job.ReadFile(f)
		require.NoError(t, err)
		d := jobs[0]
		names = append(names, d.Name)
		require.Equal(t, []int{1, 2}, d.ModelSeeds)
		p := d.Proteins()
		require.Len(t, p, 2)
		require.Equal(t, "MKV", p[0].Sequence, "catalog order")
		require.Equal(t, 2, p[0].Count)
		require.Equal(t, "GGG", p[1].Sequence)
	}
	require.ElementsMatch(t, []string{"many_0", "many_1", "many_2"}, names)
}

func TestGenerateFatal(t *testing.T) {
	lig := t.TempDir()
	wrt(t, lig, "one.sdf", mol)
	empty, err := msa.NewCatalog()
	require.NoError(t, err)

	_, err = Generate(empty, lig, Options{TmpRoot: t.TempDir()})
	require.ErrorIs(t, err, ErrNoProteins)
	_, err = Generate(catalog(t, abcde), "", Options{TmpRoot: t.TempDir()})
	require.ErrorIs(t, err, ligand.ErrNoSource)
	_, err = Generate(catalog(t, abcde), t.TempDir(), Options{TmpRoot: t.TempDir()})
	require.ErrorIs(t, err, ligand.ErrNoFiles)

	noDir := catalog(t, `{"ABCDE": {"precomputed_msa_dir": ""}}`)
	_, err = Generate(noDir, lig, Options{TmpRoot: t.TempDir(), RequireMSA: true})
	require.ErrorIs(t, err, msa.ErrMissingMSA)
	g, err := Generate(noDir, lig, Options{TmpRoot: t.TempDir()})
	require.NoError(t, err, "alignments only checked when asked for")
	require.Len(t, g.Files, 1)
}

// fakeRunner remembers what it ran and fails for names in bad.
type fakeRunner struct {
	ran []string
	bad map[string]bool
}

func (f *fakeRunner) Predict(cfg runner.Config, jobFile string) error {
	f.ran = append(f.ran, filepath.Base(jobFile))
	if f.bad[filepath.Base(jobFile)] {
		return errors.New("model fell over")
	}
	return nil
}

func writeJobs(t *testing.T, dir string) {
	t.Helper()
	withMSA := job.Descriptor{Name: "ok", ModelSeeds: []int{101}, Sequences: []job.Chain{
		{ProteinChain: &job.ProteinChain{Sequence: "A", Count: 1, MSA: &job.MSA{PrecomputedMSADir: "/a", PairingDB: "uniref100"}}},
	}}
	noMSA := job.Descriptor{Name: "nomsa", ModelSeeds: []int{101}, Sequences: []job.Chain{
		{ProteinChain: &job.ProteinChain{Sequence: "A", Count: 1}},
	}}
	require.NoError(t, job.WriteFile(filepath.Join(dir, "a.json"), []job.Descriptor{withMSA}))
	require.NoError(t, job.WriteFile(filepath.Join(dir, "b.json"), []job.Descriptor{noMSA}))
	require.NoError(t, job.WriteFile(filepath.Join(dir, "c.json"), []job.Descriptor{withMSA}))
	require.NoError(t, job.WriteFile(filepath.Join(dir, "sub", "d.json"), []job.Descriptor{withMSA}))
	wrt(t, dir, "readme.txt", "not a job")
}

func TestInfer(t *testing.T) {
	dir := t.TempDir()
	writeJobs(t, dir)
	files := []string{
		filepath.Join(dir, "a.json"), filepath.Join(dir, "b.json"),
		filepath.Join(dir, "c.json"), filepath.Join(dir, "gone.json"),
	}
	r := &fakeRunner{bad: map[string]bool{"c.json": true}}
	s := Infer(r, runner.Default(), files, nil)
	require.Equal(t, []string{"a.json", "c.json"}, r.ran, "no alignments, not run")
	require.Equal(t, 4, s.Total)
	require.Equal(t, 1, s.Done)
	require.Len(t, s.Failed, 3)
	require.Equal(t, files[1], s.First)
	require.Equal(t, "missing msa result in "+files[1], s.Failed[files[1]])
	require.Contains(t, s.Failed[files[2]], "fell over")
	require.Contains(t, s.String(), "1 of 4 jobs done, 3 failed")
}

func TestInferNoProteins(t *testing.T) {
	dir := t.TempDir()
	rna := job.Descriptor{Name: "rna", ModelSeeds: []int{101}, Sequences: []job.Chain{
		{RNASequence: &job.NucleicChain{Sequence: "ACGU", Count: 1}},
		{Ligand: &job.Ligand{Ligand: "CCD_ATP", Count: 1}},
	}}
	fname := filepath.Join(dir, "rna.json")
	require.NoError(t, job.WriteFile(fname, []job.Descriptor{rna}))
	r := &fakeRunner{}
	s := Infer(r, runner.Default(), []string{fname}, nil)
	require.Equal(t, []string{"rna.json"}, r.ran, "nothing needs an alignment")
	require.Equal(t, "1 of 1 jobs done", s.String())
}

func TestInferPath(t *testing.T) {
	dir := t.TempDir()
	writeJobs(t, dir)
	r := &fakeRunner{}
	s, err := InferPath(r, runner.Default(), dir, nil)
	require.NoError(t, err)
	require.Equal(t, 4, s.Total, "readme skipped, sub directory read")
	require.Equal(t, 3, s.Done)
	require.Equal(t, "1 of 1 jobs done", func() string {
		s, err := InferPath(&fakeRunner{}, runner.Default(), filepath.Join(dir, "a.json"), nil)
		require.NoError(t, err)
		return s.String()
	}())

	_, err = InferPath(r, runner.Default(), t.TempDir(), nil)
	require.Error(t, err, "empty directory")
	_, err = InferPath(r, runner.Default(), filepath.Join(dir, "gone"), nil)
	require.Error(t, err)
}

func TestRun(t *testing.T) {
	lig := t.TempDir()
	wrt(t, lig, "x.smi", "CCO\nCCN\nC(\n")
	cfg := runner.Default()
	cfg.Seeds = []int{5}
	r := &fakeRunner{}
	s, invalid, err := Run(catalog(t, abcde), lig, r, cfg, Options{TmpRoot: t.TempDir()})
	require.NoError(t, err)
	require.Equal(t, 2, s.Done)
	require.Len(t, invalid, 1)
	require.Len(t, r.ran, 2)

	_, _, err = Run(catalog(t, abcde), "", r, cfg, Options{TmpRoot: t.TempDir()})
	require.ErrorIs(t, err, ligand.ErrNoSource)
}
