// 16 Oct 2026

// Package mmseqs runs a colabfold style mmseqs search and turns its
// output into the directory layout the inference runner reads:
//
//	<dir>/msa/<n>/non_pairing.a3m
//	<dir>/msa/<n>/pairing.a3m
//
// with n counting from 1 in the order the sequences were given.
package mmseqs

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/BurntSushi/cmd"
	"github.com/TuftsBCB/io/fasta"
	"github.com/TuftsBCB/seq"
	"github.com/google/uuid"

	"github.com/andrew-torda/afprep/pkg/a3m"
	"github.com/andrew-torda/afprep/pkg/common"
)

const (
	taxFile        = "uniref_tax.m8"
	pairingFile    = "pairing.a3m"
	nonPairingFile = "non_pairing.a3m"
)

// Config says how to run the search. The tool is called as
//
//	<Exec> <fasta> <DB> <dir> <Args...> [--threads n]
type Config struct {
	Exec    string
	DB      string
	Threads int
	Args    []string

	// When true, the stdout and stderr of the search are mapped to
	// those of the current process.
	Verbose bool
	Log     *log.Logger
}

var Default = Config{
	Exec:    "colabfold_search",
	DB:      "",
	Threads: runtime.NumCPU(),
	Args:    []string{"--use-env", "1", "--db-load-mode", "2"},
}

// Search runs the tool on seqs with dir as the results directory.
// It blocks until the search is finished. The returned directories are
// in the same order as seqs.
func (conf Config) Search(seqs []string, dir string) ([]string, error) {
	if len(seqs) == 0 {
		return nil, errors.New("mmseqs: no sequences to search")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	query := filepath.Join(dir, "tmp_"+uuid.NewString()+".fasta")
	if err := writeQuery(query, seqs); err != nil {
		return nil, err
	}
	defer os.Remove(query)

	args := append([]string{query, conf.DB, dir}, conf.Args...)
	if conf.Threads > 0 {
		args = append(args, "--threads", strconv.Itoa(conf.Threads))
	}
	c := cmd.New(conf.Exec, args...)
	if conf.Verbose {
		fmt.Fprintf(os.Stderr, "\n%s\n", c)
		c.Cmd.Stdout = os.Stdout
		c.Cmd.Stderr = os.Stderr
	}
	if err := c.Run(); err != nil {
		return nil, fmt.Errorf("mmseqs search in %s: %w", dir, err)
	}
	return conf.postprocess(seqs, dir)
}

// writeQuery writes the sequences named by their index, which is how
// the search names its output files.
func writeQuery(fname string, seqs []string) error {
	fp, err := os.Create(fname)
	if err != nil {
		return err
	}
	w := fasta.NewWriter(fp)
	for i, s := range seqs {
		rs := make([]seq.Residue, len(s))
		for j := range s {
			rs[j] = seq.Residue(s[j])
		}
		if err := w.Write(seq.Sequence{Name: strconv.Itoa(i), Residues: rs}); err != nil {
			fp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}

// postprocess splits each <dir>/<i>.a3m. The whole alignment becomes
// the unpaired alignment. The UniRef hits, tagged with taxonomy ids if
// the search wrote them, become the pairing alignment.
func (conf Config) postprocess(seqs []string, dir string) ([]string, error) {
	logger := common.OrDiscard(conf.Log)
	taxids, err := readTax(filepath.Join(dir, taxFile))
	if err != nil {
		return nil, err
	}
	ret := make([]string, len(seqs))
	for i, s := range seqs {
		fname := filepath.Join(dir, strconv.Itoa(i)+".a3m")
		nhit, err := a3m.CountFile(fname)
		if err != nil {
			return nil, fmt.Errorf("mmseqs result for sequence %d: %w", i, err)
		}
		logger.Printf("sequence %d: %d records in %s", i, nhit, fname)
		aln, err := readA3m(fname)
		if err != nil {
			return nil, fmt.Errorf("mmseqs result for sequence %d: %w", i, err)
		}
		sub := filepath.Join(dir, "msa", strconv.Itoa(i+1))
		if err := os.MkdirAll(sub, 0755); err != nil {
			return nil, err
		}
		if err := writeA3m(filepath.Join(sub, nonPairingFile), aln); err != nil {
			return nil, err
		}
		aln.AddTaxID(taxids)
		uniref, _ := aln.SplitUniref(s)
		if err := writeA3m(filepath.Join(sub, pairingFile), uniref); err != nil {
			return nil, err
		}
		ret[i] = sub
	}
	return ret, nil
}

// readTax gives an empty map if there is no taxonomy file.
func readTax(fname string) (map[string]string, error) {
	fp, err := os.Open(fname)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return a3m.ReadM8(fp)
}

func readA3m(fname string) (*a3m.Alignment, error) {
	fp, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return a3m.Read(fp)
}

func writeA3m(fname string, aln *a3m.Alignment) error {
	fp, err := os.Create(fname)
	if err != nil {
		return err
	}
	if err := a3m.Write(fp, aln); err != nil {
		fp.Close()
		return err
	}
	return fp.Close()
}
