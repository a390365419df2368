package batch

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andrew-torda/afprep/pkg/common"
	"github.com/andrew-torda/afprep/pkg/job"
	"github.com/andrew-torda/afprep/pkg/ligand"
	"github.com/andrew-torda/afprep/pkg/msa"
	"github.com/andrew-torda/afprep/pkg/runner"
)

// Summary of a batch. Failed maps a job file to what went wrong.
// First is the first file that failed.
type Summary struct {
	Total  int
	Done   int
	Failed map[string]string
	First  string
}

func (s *Summary) fail(file, msg string) {
	if s.Failed == nil {
		s.Failed = make(map[string]string)
	}
	if len(s.Failed) == 0 {
		s.First = file
	}
	s.Failed[file] = msg
}

func (s *Summary) String() string {
	if len(s.Failed) == 0 {
		return fmt.Sprintf("%d of %d jobs done", s.Done, s.Total)
	}
	return fmt.Sprintf("%d of %d jobs done, %d failed, first %s: %s",
		s.Done, s.Total, len(s.Failed), s.First, s.Failed[s.First])
}

// Infer runs the job files one after another. A file whose proteins
// lack alignments is not given to the runner. Failures are recorded
// and the next file is tried.
func Infer(r runner.Runner, cfg runner.Config, files []string, logger *log.Logger) *Summary {
	logger = common.OrDiscard(logger)
	s := &Summary{Total: len(files)}
	for _, f := range files {
		ok, err := job.HasMSA(f)
		switch {
		case err != nil:
			s.fail(f, err.Error())
		case !ok:
			s.fail(f, "missing msa result in "+f)
		default:
			if err := r.Predict(cfg, f); err != nil {
				s.fail(f, err.Error())
			} else {
				s.Done++
			}
		}
		ratio := 100.0 * float64(s.Done) / float64(s.Total)
		logger.Printf("%d of %d jobs complete (%0.2f%% done, %d errors)",
			s.Done, s.Total, ratio, len(s.Failed))
	}
	return s
}

// InferPath runs a job file or all the .json files under a directory.
// A directory with no files at all is an error.
func InferPath(r runner.Runner, cfg runner.Config, path string, logger *log.Logger) (*Summary, error) {
	logger = common.OrDiscard(logger)
	files, err := jobFiles(path)
	if err != nil {
		return nil, err
	}
	logger.Printf("will infer with %d job files", len(files))
	return Infer(r, cfg, files, logger), nil
}

func jobFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("job files: %w", err)
	}
	if !info.IsDir() {
		return filterJSON([]string{path}), nil
	}
	var all []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			all = append(all, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no files in %s", path)
	}
	sort.Strings(all)
	return filterJSON(all), nil
}

func filterJSON(files []string) []string {
	var ret []string
	for _, f := range files {
		if strings.HasSuffix(f, ".json") {
			ret = append(ret, f)
		}
	}
	return ret
}

// Run generates the job files and runs them. If opts has no seeds, the
// runner's are used.
func Run(cat *msa.Catalog, ligandPath string, r runner.Runner, cfg runner.Config, opts Options) (*Summary, []ligand.Item, error) {
	if len(opts.Seeds) == 0 {
		opts.Seeds = cfg.Seeds
	}
	g, err := Generate(cat, ligandPath, opts)
	if err != nil {
		return nil, nil, err
	}
	s := Infer(r, cfg, g.Files, opts.Log)
	common.OrDiscard(opts.Log).Printf("run inference: %s", s)
	return s, g.Invalid, nil
}
