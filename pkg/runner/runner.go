// 17 Oct 2026

// Package runner is the boundary to the structure prediction model. The
// model runs as a separate program which is given one job file at a
// time. Everything it needs to know is in Config.
package runner

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/cmd"
	"github.com/spf13/viper"

	"github.com/andrew-torda/afprep/pkg/common"
	"github.com/andrew-torda/afprep/pkg/job"
)

// DeepspeedEnv is the environment variable that switches on the
// deepspeed evoformer attention kernel.
const DeepspeedEnv = "use_deepspeed_evo_attention"

// Config holds the options the model is run with. The mapstructure
// names are the keys in a config file.
type Config struct {
	CheckpointPath           string `mapstructure:"checkpoint_path"`
	NCycle                   int    `mapstructure:"n_cycle"`
	NSample                  int    `mapstructure:"n_sample"`
	NStep                    int    `mapstructure:"n_step"`
	UseDeepspeedEvoAttention bool   `mapstructure:"use_deepspeed_evo_attention"`
	DumpDir                  string `mapstructure:"dump_dir"`
	Exec                     string `mapstructure:"exec"`
	Seeds                    []int  `mapstructure:"seeds"`
}

// Default gives the settings of the released model.
func Default() Config {
	return Config{
		CheckpointPath: "/af3-dev/release_model/model_v1.pt",
		NCycle:         10,
		NSample:        5,
		NStep:          200,
		DumpDir:        "./output",
		Exec:           "af3_infer",
		Seeds:          []int{job.DefaultSeed},
	}
}

// Load fills a Config from v on top of the defaults. v may already
// have read a config file or have flags bound to it. The environment
// is consulted for AFPREP_<KEY> and for DeepspeedEnv.
func Load(v *viper.Viper) (Config, error) {
	def := Default()
	v.SetDefault("checkpoint_path", def.CheckpointPath)
	v.SetDefault("n_cycle", def.NCycle)
	v.SetDefault("n_sample", def.NSample)
	v.SetDefault("n_step", def.NStep)
	v.SetDefault("use_deepspeed_evo_attention", def.UseDeepspeedEvoAttention)
	v.SetDefault("dump_dir", def.DumpDir)
	v.SetDefault("exec", def.Exec)
	v.SetDefault("seeds", def.Seeds)
	v.SetEnvPrefix("afprep")
	v.AutomaticEnv()
	if err := v.BindEnv("use_deepspeed_evo_attention", DeepspeedEnv); err != nil {
		return Config{}, err
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("runner config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks for settings the model would only complain about
// after loading its weights.
func (c Config) Validate() error {
	var errs []error
	if c.CheckpointPath == "" {
		errs = append(errs, errors.New("no checkpoint path"))
	}
	if c.Exec == "" {
		errs = append(errs, errors.New("no program to run"))
	}
	if c.DumpDir == "" {
		errs = append(errs, errors.New("no output directory"))
	}
	for _, p := range []struct {
		name string
		n    int
	}{{"n_cycle", c.NCycle}, {"n_sample", c.NSample}, {"n_step", c.NStep}} {
		if p.n < 1 {
			errs = append(errs, fmt.Errorf("%s is %d, must be at least 1", p.name, p.n))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("runner config: %w", err)
	}
	return nil
}

// Args is the command line given to the model for one job file.
func (c Config) Args(jobFile string) []string {
	args := []string{
		"--input_json_path", jobFile,
		"--dump_dir", c.DumpDir,
		"--load_checkpoint_path", c.CheckpointPath,
		"--model.N_cycle", strconv.Itoa(c.NCycle),
		"--sample_diffusion.N_sample", strconv.Itoa(c.NSample),
		"--sample_diffusion.N_step", strconv.Itoa(c.NStep),
		"--use_deepspeed_evo_attention", strconv.FormatBool(c.UseDeepspeedEvoAttention),
	}
	if len(c.Seeds) > 0 {
		s := make([]string, len(c.Seeds))
		for i, seed := range c.Seeds {
			s[i] = strconv.Itoa(seed)
		}
		args = append(args, "--seeds", strings.Join(s, ","))
	}
	return args
}

// Runner runs one prediction. It blocks until the prediction is
// finished and has no timeout of its own.
type Runner interface {
	Predict(cfg Config, jobFile string) error
}

// Exec runs the model as an external program.
type Exec struct {
	// When true, the program's stdout and stderr go to ours.
	Verbose bool
	Log     *log.Logger
}

func (e Exec) Predict(cfg Config, jobFile string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DumpDir, 0755); err != nil {
		return err
	}
	c := cmd.New(cfg.Exec, cfg.Args(jobFile)...)
	c.Cmd.Env = append(os.Environ(), DeepspeedEnv+"="+strconv.FormatBool(cfg.UseDeepspeedEvoAttention))
	if e.Verbose {
		c.Cmd.Stdout = os.Stdout
		c.Cmd.Stderr = os.Stderr
	}
	common.OrDiscard(e.Log).Printf("running %s", c)
	if err := c.Run(); err != nil {
		return fmt.Errorf("predicting %s: %w", jobFile, err)
	}
	return nil
}
