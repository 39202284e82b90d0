package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/giantswarm/kernfsenv"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk CLI configuration. Durations are written as Go
// duration strings ("90s", "5m"). Unset fields keep the library defaults.
type Config struct {
	Root          string        `yaml:"root"`
	NUMANode      int           `yaml:"numa_node"`
	CPU           int           `yaml:"cpu"`
	Placement     bool          `yaml:"placement"`
	GatherStats   bool          `yaml:"gather_stats"`
	Verbose       bool          `yaml:"verbose"`
	LogDir        string        `yaml:"log_dir,omitempty"`
	ArtifactDir   string        `yaml:"artifact_dir"`
	MarkerPattern string        `yaml:"marker_pattern"`
	StatsPattern  string        `yaml:"stats_pattern"`
	ArchiveDir    string        `yaml:"archive_dir,omitempty"`
	IndexPoolPath string        `yaml:"index_pool_path"`
	StartTimeout  time.Duration `yaml:"start_timeout"`
	StopTimeout   time.Duration `yaml:"stop_timeout"`
	KillOnTimeout bool          `yaml:"kill_on_timeout"`
	ResetStats    bool          `yaml:"reset_stats"`
	History       string        `yaml:"history,omitempty"`
	MetricsFile   string        `yaml:"metrics_file,omitempty"`
}

// DefaultConfig mirrors the library defaults.
func DefaultConfig() Config {
	return Config{
		Root:          ".",
		NUMANode:      kernfsenv.DefaultNUMANode,
		CPU:           kernfsenv.DefaultCPU,
		Placement:     true,
		GatherStats:   true,
		ArtifactDir:   kernfsenv.DefaultArtifactDir,
		MarkerPattern: kernfsenv.DefaultMarkerPattern,
		StatsPattern:  kernfsenv.DefaultStatsPattern,
		IndexPoolPath: kernfsenv.DefaultIndexPoolPath,
		StartTimeout:  kernfsenv.DefaultStartTimeout,
		StopTimeout:   kernfsenv.DefaultStopTimeout,
	}
}

// LoadConfig decodes YAML from r over DefaultConfig. Unknown keys are
// rejected.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid field. The library options panic on these
// values, so the CLI checks them first.
func (c Config) Validate() error {
	var errs []error
	if c.Root == "" {
		errs = append(errs, errors.New("root must not be empty"))
	}
	if c.NUMANode < 0 {
		errs = append(errs, fmt.Errorf("numa_node must not be negative, got %d", c.NUMANode))
	}
	if c.CPU < 0 {
		errs = append(errs, fmt.Errorf("cpu must not be negative, got %d", c.CPU))
	}
	if c.StartTimeout <= 0 {
		errs = append(errs, fmt.Errorf("start_timeout must be greater than 0, got %v", c.StartTimeout))
	}
	if c.StopTimeout <= 0 {
		errs = append(errs, fmt.Errorf("stop_timeout must be greater than 0, got %v", c.StopTimeout))
	}
	for name, v := range map[string]string{
		"artifact_dir":    c.ArtifactDir,
		"marker_pattern":  c.MarkerPattern,
		"stats_pattern":   c.StatsPattern,
		"index_pool_path": c.IndexPoolPath,
	} {
		if v == "" {
			errs = append(errs, fmt.Errorf("%s must not be empty", name))
		}
	}
	return errors.Join(errs...)
}

// Options converts the configuration into library options. Optional paths
// are only passed when set.
func (c Config) Options() []kernfsenv.Option {
	opts := []kernfsenv.Option{
		kernfsenv.WithNUMANode(c.NUMANode),
		kernfsenv.WithCPU(c.CPU),
		kernfsenv.WithPlacement(c.Placement),
		kernfsenv.WithGatherStats(c.GatherStats),
		kernfsenv.WithVerbose(c.Verbose),
		kernfsenv.WithArtifactDir(c.ArtifactDir),
		kernfsenv.WithMarkerPattern(c.MarkerPattern),
		kernfsenv.WithStatsPattern(c.StatsPattern),
		kernfsenv.WithIndexPoolPath(c.IndexPoolPath),
		kernfsenv.WithStartTimeout(c.StartTimeout),
		kernfsenv.WithStopTimeout(c.StopTimeout),
		kernfsenv.WithKillOnTimeout(c.KillOnTimeout),
		kernfsenv.WithStatsReset(c.ResetStats),
	}
	if c.LogDir != "" {
		opts = append(opts, kernfsenv.WithLogDir(c.LogDir))
	}
	if c.ArchiveDir != "" {
		opts = append(opts, kernfsenv.WithArchiveDir(c.ArchiveDir))
	}
	if c.History != "" {
		opts = append(opts, kernfsenv.WithRunHistory(c.History))
	}
	return opts
}
