package kernfsenv

import (
	"fmt"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("kernfsenv: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonNegative panics if v < 0 with a descriptive message.
func requireNonNegative(name string, v int) {
	if v < 0 {
		panic(fmt.Sprintf("kernfsenv: %s must not be negative, got %d", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("kernfsenv: %s must not be empty", name))
	}
}

// Option configures a Service during construction via NewService.
//
// Several With* functions panic on invalid input (empty paths, negative
// placement, non-positive durations). Option values are typically constants
// or flags validated at startup, so an invalid value is a programmer error;
// the pattern mirrors [regexp.MustCompile].
type Option func(*serviceConfig)

// WithEnv sets the daemon's environment in os.Environ() form. The slice is
// copied. Default: the supervisor's environment at NewService time.
func WithEnv(env []string) Option {
	env = slices.Clone(env)
	return func(c *serviceConfig) {
		c.Env = env
		c.envSet = true
	}
}

// WithNUMANode sets the NUMA node passed to numactl for both execution and
// memory. Default: 0.
//
// Panics if node < 0.
func WithNUMANode(node int) Option {
	requireNonNegative("NUMA node", node)
	return func(c *serviceConfig) {
		c.NUMANode = node
	}
}

// WithCPU sets the core the daemon is pinned to. Default: 0.
//
// Panics if cpu < 0.
func WithCPU(cpu int) Option {
	requireNonNegative("CPU", cpu)
	return func(c *serviceConfig) {
		c.CPU = cpu
	}
}

// WithPlacement enables or disables the taskset/numactl wrapping of mkfs and
// the daemon. Disable it on machines without NUMA tooling. Default: enabled.
func WithPlacement(enabled bool) Option {
	return func(c *serviceConfig) {
		c.Placement = enabled
	}
}

// WithGatherStats makes Stop return the last statistics record.
// Default: false.
func WithGatherStats(enabled bool) Option {
	return func(c *serviceConfig) {
		c.GatherStats = enabled
	}
}

// WithVerbose passes the daemon's and mkfs's output through to the
// supervisor's stdout and stderr. Ignored when WithLogDir is set.
func WithVerbose(enabled bool) Option {
	return func(c *serviceConfig) {
		c.Verbose = enabled
	}
}

// WithLogDir writes the daemon's output to kernfs-stdout.log and
// kernfs-stderr.log, and mkfs's to mkfs-*.log, in dir.
// Panics if dir is empty.
func WithLogDir(dir string) Option {
	requireNonEmpty("log directory", dir)
	return func(c *serviceConfig) {
		c.LogDir = dir
	}
}

// WithArtifactDir sets the directory holding readiness markers and
// statistics files. Default: /tmp.
// Panics if dir is empty.
func WithArtifactDir(dir string) Option {
	requireNonEmpty("artifact directory", dir)
	return func(c *serviceConfig) {
		c.ArtifactDir = dir
	}
}

// WithMarkerPattern sets the readiness marker glob, relative to the artifact
// directory. "{run}" is replaced by the run ID. Default: kernfs*.pid.
// Panics if pattern is empty.
func WithMarkerPattern(pattern string) Option {
	requireNonEmpty("marker pattern", pattern)
	return func(c *serviceConfig) {
		c.MarkerPattern = pattern
	}
}

// WithStatsPattern sets the statistics file glob, relative to the artifact
// directory. "{run}" is replaced by the run ID. Default: kernfs_prof.*.
// Panics if pattern is empty.
func WithStatsPattern(pattern string) Option {
	requireNonEmpty("stats pattern", pattern)
	return func(c *serviceConfig) {
		c.StatsPattern = pattern
	}
}

// WithArchiveDir copies every statistics file into dir, prefixed with the run
// ID, before Stop removes them.
// Panics if dir is empty.
func WithArchiveDir(dir string) Option {
	requireNonEmpty("archive directory", dir)
	return func(c *serviceConfig) {
		c.ArchiveDir = dir
	}
}

// WithIndexPoolPath sets the index pool file removed by Provision.
// Default: /mnt/pmem/clevel.pool.
// Panics if path is empty.
func WithIndexPoolPath(path string) Option {
	requireNonEmpty("index pool path", path)
	return func(c *serviceConfig) {
		c.IndexPoolPath = path
	}
}

// WithRunScript sets the launch wrapper, relative to <root>/kernfs/tests.
// Panics if name is empty.
func WithRunScript(name string) Option {
	requireNonEmpty("run script", name)
	return func(c *serviceConfig) {
		c.RunScript = name
	}
}

// WithMkfsScript sets the provisioning script, relative to
// <root>/kernfs/tests.
// Panics if name is empty.
func WithMkfsScript(name string) Option {
	requireNonEmpty("mkfs script", name)
	return func(c *serviceConfig) {
		c.MkfsScript = name
	}
}

// WithServiceBinary sets the daemon binary, relative to <root>/kernfs/tests.
// Panics if name is empty.
func WithServiceBinary(name string) Option {
	requireNonEmpty("service binary", name)
	return func(c *serviceConfig) {
		c.ServiceBinary = name
	}
}

// WithStartTimeout bounds the wait for the readiness marker.
//
// Default: 5 minutes.
//
// Panics if d <= 0.
func WithStartTimeout(d time.Duration) Option {
	requirePositive("start timeout", d)
	return func(c *serviceConfig) {
		c.StartTimeout = d
	}
}

// WithStopTimeout bounds the wait for the process group to exit after
// SIGQUIT.
//
// Default: 10 seconds.
//
// Panics if d <= 0.
func WithStopTimeout(d time.Duration) Option {
	requirePositive("stop timeout", d)
	return func(c *serviceConfig) {
		c.StopTimeout = d
	}
}

// WithPollInterval sets the interval between readiness marker scans.
//
// Default: 20 milliseconds.
//
// Panics if d <= 0.
func WithPollInterval(d time.Duration) Option {
	requirePositive("poll interval", d)
	return func(c *serviceConfig) {
		c.PollInterval = d
	}
}

// WithKillOnTimeout makes Stop send SIGKILL to the group when it outlives the
// stop timeout, instead of returning ErrShutdownTimeout. Default: false.
func WithKillOnTimeout(enabled bool) Option {
	return func(c *serviceConfig) {
		c.KillOnTimeout = enabled
	}
}

// WithStatsReset makes Start send SIGUSR2 to the daemon once it is ready, so
// that statistics gathered during initialization are discarded.
// Default: false.
func WithStatsReset(enabled bool) Option {
	return func(c *serviceConfig) {
		c.ResetStatsSignal = enabled
	}
}

// WithMetrics registers the service's Prometheus collectors with reg.
// Panics if reg is nil.
func WithMetrics(reg prometheus.Registerer) Option {
	if reg == nil {
		panic("kernfsenv: metrics registerer must not be nil")
	}
	return func(c *serviceConfig) {
		c.registerer = reg
	}
}

// WithRunHistory records every run in the SQLite database at path, which is
// created if needed. The database is closed by Service.Close.
// Panics if path is empty.
func WithRunHistory(path string) Option {
	requireNonEmpty("run history path", path)
	return func(c *serviceConfig) {
		c.historyPath = path
	}
}
