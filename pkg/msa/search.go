package msa

import (
	"fmt"
	"log"
	"path/filepath"
	"sort"

	"github.com/andrew-torda/afprep/pkg/common"
	"github.com/andrew-torda/afprep/pkg/job"
)

// Searcher runs an alignment search. It is given sequences and a
// working directory and returns one result directory per sequence, in
// the same order.
type Searcher interface {
	Search(seqs []string, dir string) ([]string, error)
}

// SearchUpdate takes a job file whose protein chains may lack
// alignments, runs the searcher and writes a new job file,
// <stem>-add-msa.json, next to the old one. The name of the new file is
// returned. A file that already has all its alignments is returned
// unchanged.
// Results for descriptor i go under <outDir>/<name>/msa_res/msa_seq_<i>.
func SearchUpdate(jobFile, outDir string, s Searcher, logger *log.Logger) (string, error) {
	logger = common.OrDiscard(logger)
	ok, err := job.HasMSA(jobFile)
	if err != nil {
		return "", err
	}
	if ok {
		logger.Printf("%s already has alignments, skipping", jobFile)
		return jobFile, nil
	}
	jobs, err := job.ReadFile(jobFile)
	if err != nil {
		return "", err
	}
	logger.Printf("starting alignment search for %s", jobFile)
	for i := range jobs {
		d := &jobs[i]
		name := d.Name
		if name == "" {
			name = fmt.Sprintf("seq_%d", i)
		}
		seqs := uniqueSorted(d.Proteins())
		if len(seqs) == 0 {
			continue
		}
		dir := filepath.Join(outDir, name, "msa_res", fmt.Sprintf("msa_seq_%d", i))
		dirs, err := s.Search(seqs, dir)
		if err != nil {
			return "", fmt.Errorf("%s, job %s: %w", jobFile, name, err)
		}
		if len(dirs) != len(seqs) {
			return "", fmt.Errorf("%s, job %s: alignment search gave %d results for %d sequences",
				jobFile, name, len(dirs), len(seqs))
		}
		bySeq := make(map[string]string, len(seqs))
		for j, sq := range seqs {
			bySeq[sq] = dirs[j]
		}
		for _, pc := range d.Proteins() {
			pc.MSA = &job.MSA{PrecomputedMSADir: bySeq[pc.Sequence], PairingDB: job.PairingDB}
		}
	}
	out := filepath.Join(filepath.Dir(jobFile), common.Stem(jobFile)+"-add-msa.json")
	if err := job.WriteFile(out, jobs); err != nil {
		return "", err
	}
	logger.Printf("alignments added, saved to %s", out)
	return out, nil
}

// uniqueSorted gives the protein sequences, sorted, each once.
func uniqueSorted(p []*job.ProteinChain) []string {
	seen := make(map[string]bool, len(p))
	var ret []string
	for _, pc := range p {
		if !seen[pc.Sequence] {
			seen[pc.Sequence] = true
			ret = append(ret, pc.Sequence)
		}
	}
	sort.Strings(ret)
	return ret
}
