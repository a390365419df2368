// 18 Oct 2026

// Package afprep is the command line tool. It only parses flags and
// config and calls the library packages.
package afprep

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/andrew-torda/afprep/pkg/atomtab"
	"github.com/andrew-torda/afprep/pkg/batch"
	. "github.com/andrew-torda/afprep/pkg/common"
	"github.com/andrew-torda/afprep/pkg/mmseqs"
	"github.com/andrew-torda/afprep/pkg/msa"
	"github.com/andrew-torda/afprep/pkg/runner"
	"github.com/andrew-torda/afprep/pkg/tojson"
)

// usageError is a complaint about the command line.
type usageError struct{ error }

// app is what every command needs. Runner is swapped in tests.
type app struct {
	v        *viper.Viper
	logWhere string
	cfgFile  string
	log      *log.Logger
	closer   io.Closer
	runner   runner.Runner
	stdout   io.Writer
}

// setup reads the config file and opens the log.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("config file: %w", err)
		}
	}
	var err error
	if a.log, a.closer, err = NewLogger(a.logWhere); err != nil {
		return err
	}
	return nil
}

func (a *app) teardown(*cobra.Command, []string) {
	if a.closer != nil {
		a.closer.Close()
	}
}

// runnerFlags are shared by the commands that run the model.
func (a *app) runnerFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	def := runner.Default()
	f.String("out_dir", def.DumpDir, "directory for predicted structures")
	f.String("checkpoint", def.CheckpointPath, "model checkpoint")
	f.String("exec", def.Exec, "program that runs the model")
	f.IntSlice("seeds", def.Seeds, "model seeds")
}

// runnerConfig binds the flags of the command being run, so config
// file and environment only fill in what was not given on the line.
func (a *app) runnerConfig(cmd *cobra.Command) (runner.Config, error) {
	f := cmd.Flags()
	for key, flag := range map[string]string{
		"dump_dir": "out_dir", "checkpoint_path": "checkpoint", "exec": "exec"} {
		if err := a.v.BindPFlag(key, f.Lookup(flag)); err != nil {
			return runner.Config{}, err
		}
	}
	cfg, err := runner.Load(a.v)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("seeds") {
		cfg.Seeds, _ = cmd.Flags().GetIntSlice("seeds")
	}
	return cfg, nil
}

// mmseqsFlags go into the returned config when the command runs.
func mmseqsFlags(cmd *cobra.Command) *mmseqs.Config {
	conf := mmseqs.Default
	f := cmd.Flags()
	f.StringVar(&conf.Exec, "msa_exec", conf.Exec, "alignment search program")
	f.StringVar(&conf.DB, "msa_db", conf.DB, "database directory for the alignment search")
	f.IntVar(&conf.Threads, "msa_threads", conf.Threads, "threads for the alignment search")
	f.BoolVar(&conf.Verbose, "msa_verbose", conf.Verbose, "show alignment search output")
	return &conf
}

func newRoot(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "afprep",
		Short:             "prepare and run structure predictions",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
	}
	root.PersistentFlags().StringVar(&a.logWhere, "log", "stderr", `where to log: "", stdout, stderr or a file name`)
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file for the model runner")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usageError{err} })
	root.AddCommand(predictCmd(a), tojsonCmd(a), msaCmd(a), batchCmd(a))
	return root
}

func predictCmd(a *app) *cobra.Command {
	var input string
	var useMSA bool
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "run the model on a job file or a directory of job files",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&input, "input", "", "job file or directory")
	cmd.Flags().BoolVar(&useMSA, "use_msa_server", false, "search for missing alignments first")
	a.runnerFlags(cmd)
	search := mmseqsFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if input == "" {
			return usageError{errors.New("predict needs --input")}
		}
		cfg, err := a.runnerConfig(cmd)
		if err != nil {
			return err
		}
		if useMSA {
			if info, err := os.Stat(input); err == nil && info.IsDir() {
				return usageError{errors.New("--use_msa_server needs a single job file")}
			}
			search.Log = a.log
			if input, err = msa.SearchUpdate(input, cfg.DumpDir, search, a.log); err != nil {
				return err
			}
		}
		s, err := batch.InferPath(a.runner, cfg, input, a.log)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, s)
		if len(s.Failed) > 0 {
			return errors.New(s.String())
		}
		return nil
	}
	return cmd
}

// structure files tojson picks up from a directory
var structExt = []string{".cif", ".mmcif", ".cif.gz", ".mmcif.gz"}

func tojsonCmd(a *app) *cobra.Command {
	var input, outDir string
	var opts tojson.Options
	cmd := &cobra.Command{
		Use:   "tojson",
		Short: "turn mmcif files into job files",
		Args:  cobra.NoArgs,
	}
	f := cmd.Flags()
	f.StringVar(&input, "input", "", "mmcif file or directory")
	f.StringVar(&outDir, "out_dir", "./output", "directory for job files")
	f.StringVar(&opts.Read.AltLoc, "altloc", atomtab.AltLocFirst, `alternate locations: "first", "all" or a letter`)
	f.StringVar(&opts.Read.AssemblyID, "assembly_id", "", "biological assembly, default asymmetric unit")
	cmd.RunE = func(*cobra.Command, []string) error {
		if input == "" {
			return usageError{errors.New("tojson needs --input")}
		}
		opts.Log = a.log
		files, err := structFiles(input)
		if err != nil {
			return err
		}
		var errs []error
		for _, fn := range files {
			out, err := tojson.ConvertFile(fn, outDir, opts)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			fmt.Fprintln(a.stdout, out)
		}
		return errors.Join(errs...)
	}
	return cmd
}

func structFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var ret []string
	for _, ext := range structExt {
		m, err := filepath.Glob(filepath.Join(path, "*"+ext))
		if err != nil {
			return nil, err
		}
		ret = append(ret, m...)
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("no mmcif files in %s", path)
	}
	return ret, nil
}

func msaCmd(a *app) *cobra.Command {
	var input, outDir string
	cmd := &cobra.Command{
		Use:   "msa",
		Short: "search alignments for the proteins of a job file",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&input, "input", "", "job file")
	cmd.Flags().StringVar(&outDir, "out_dir", "./output", "directory for alignments")
	search := mmseqsFlags(cmd)
	cmd.RunE = func(*cobra.Command, []string) error {
		if input == "" {
			return usageError{errors.New("msa needs --input")}
		}
		search.Log = a.log
		out, err := msa.SearchUpdate(input, outDir, search, a.log)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, out)
		return nil
	}
	return cmd
}

func batchCmd(a *app) *cobra.Command {
	var catFile, ligand, tmpRoot string
	var requireMSA bool
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "make a job for every ligand and run them all",
		Args:  cobra.NoArgs,
	}
	f := cmd.Flags()
	f.StringVar(&catFile, "catalog", "", "JSON file mapping sequences to alignment directories")
	f.StringVar(&ligand, "ligand", "", "ligand file or directory (.sdf, .mol, .smi)")
	f.StringVar(&tmpRoot, "tmp_root", os.TempDir(), "where split ligands and job files go")
	f.BoolVar(&requireMSA, "require_msa", true, "every protein must have an alignment directory")
	a.runnerFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if catFile == "" || ligand == "" {
			return usageError{errors.New("batch needs --catalog and --ligand")}
		}
		cfg, err := a.runnerConfig(cmd)
		if err != nil {
			return err
		}
		cat, err := msa.LoadCatalogFile(catFile)
		if err != nil {
			return err
		}
		opts := batch.Options{TmpRoot: tmpRoot, RequireMSA: requireMSA, Log: a.log}
		s, invalid, err := batch.Run(cat, ligand, a.runner, cfg, opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, s)
		if len(invalid) > 0 {
			names := make([]string, len(invalid))
			for i, it := range invalid {
				names[i] = it.Name
			}
			fmt.Fprintf(a.stdout, "%d invalid ligands: %s\n", len(invalid), strings.Join(names, " "))
		}
		return nil
	}
	return cmd
}

func run(args []string, r runner.Runner, stdout io.Writer) int {
	a := &app{v: viper.New(), runner: r, stdout: stdout}
	root := newRoot(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintln(os.Stderr, err)
	var ue usageError
	if errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
		return ExitUsageError
	}
	return ExitFailure
}

// MyMain is called by main with the command line arguments.
func MyMain(args []string) int {
	return run(args, runner.Exec{Verbose: true}, os.Stdout)
}
