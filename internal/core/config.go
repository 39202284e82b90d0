package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/giantswarm/kernfsenv/internal/artifact"
	"github.com/giantswarm/kernfsenv/internal/metrics"
	"github.com/giantswarm/kernfsenv/internal/runlog"
)

// ServiceSubdir is the service directory relative to the repository root.
const ServiceSubdir = "kernfs/tests"

// RunIDEnv is the environment variable carrying the run ID to the service.
const RunIDEnv = "KERNFS_RUN_ID"

// Config holds the configuration of a Service.
//
// All fields are immutable after New; Env is copied there.
type Config struct {
	// RootPath is the repository root containing ServiceSubdir.
	RootPath string
	// Env is the child environment in os.Environ() form.
	Env []string
	// NUMANode is the node passed to numactl -N and -m.
	NUMANode int
	// CPU is the core passed to taskset -c.
	CPU int
	// Placement wraps commands in taskset/numactl. Tests turn it off on
	// machines without NUMA tooling.
	Placement bool
	// GatherStats makes Stop collect the last statistics record.
	GatherStats bool

	// Verbose passes the child's output through; LogDir writes it to files
	// instead. With neither the output is discarded.
	Verbose bool
	LogDir  string

	// ArtifactDir holds readiness markers and statistics files.
	ArtifactDir string
	// MarkerPattern and StatsPattern are globs relative to ArtifactDir.
	// Either may use "{run}" for the run ID.
	MarkerPattern string
	StatsPattern  string
	// ArchiveDir, when set, receives a copy of every statistics file before
	// Stop removes them.
	ArchiveDir string

	// IndexPoolPath is removed by Provision after mkfs.
	IndexPoolPath string

	RunScript     string // launch wrapper, relative to the service directory
	MkfsScript    string // provisioning script, relative to the service directory
	ServiceBinary string // daemon, relative to the service directory

	StartTimeout time.Duration
	StopTimeout  time.Duration
	PollInterval time.Duration

	// KillOnTimeout escalates to SIGKILL when the group outlives
	// StopTimeout instead of failing with ErrShutdownTimeout.
	KillOnTimeout bool
	// ResetStatsSignal sends SIGUSR2 to the service once it is ready.
	ResetStatsSignal bool

	// Metrics and History are optional.
	Metrics *metrics.Recorder
	History *runlog.Store
}

// ServiceDir returns the directory the service runs in.
func (c Config) ServiceDir() string {
	return filepath.Join(c.RootPath, filepath.FromSlash(ServiceSubdir))
}

// Validate checks all Config invariants and returns an error describing every
// violation found.
func (c Config) Validate() error {
	var errs []error

	if c.RootPath == "" {
		errs = append(errs, errors.New("root path must not be empty"))
	}
	if c.NUMANode < 0 {
		errs = append(errs, fmt.Errorf("NUMA node must not be negative, got %d", c.NUMANode))
	}
	if c.CPU < 0 {
		errs = append(errs, fmt.Errorf("CPU must not be negative, got %d", c.CPU))
	}
	if c.ArtifactDir == "" {
		errs = append(errs, errors.New("artifact directory must not be empty"))
	}
	errs = append(errs, validatePattern("marker pattern", c.MarkerPattern)...)
	errs = append(errs, validatePattern("stats pattern", c.StatsPattern)...)
	if c.IndexPoolPath == "" {
		errs = append(errs, errors.New("index pool path must not be empty"))
	}
	if c.RunScript == "" {
		errs = append(errs, errors.New("run script must not be empty"))
	}
	if c.MkfsScript == "" {
		errs = append(errs, errors.New("mkfs script must not be empty"))
	}
	if c.ServiceBinary == "" {
		errs = append(errs, errors.New("service binary must not be empty"))
	}
	if c.StartTimeout <= 0 {
		errs = append(errs, fmt.Errorf("start timeout must be greater than 0, got %s", c.StartTimeout))
	}
	if c.StopTimeout <= 0 {
		errs = append(errs, fmt.Errorf("stop timeout must be greater than 0, got %s", c.StopTimeout))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be greater than 0, got %s", c.PollInterval))
	}

	return errors.Join(errs...)
}

func validatePattern(name, pattern string) []error {
	if pattern == "" {
		return []error{fmt.Errorf("%s must not be empty", name)}
	}
	if !doublestar.ValidatePattern(pattern) {
		return []error{fmt.Errorf("%s %q is not a valid glob", name, pattern)}
	}
	return nil
}

// runScoped reports whether both artifact patterns carry the run ID, in which
// case concurrent services may share ArtifactDir.
func (c Config) runScoped() bool {
	return artifact.IsRunScoped(c.MarkerPattern) && artifact.IsRunScoped(c.StatsPattern)
}
