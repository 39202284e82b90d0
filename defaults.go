package kernfsenv

import "time"

// Default configuration values for NewService.
const (
	// DefaultNUMANode is the NUMA node for execution and memory.
	DefaultNUMANode = 0

	// DefaultCPU is the core the daemon is pinned to with taskset.
	DefaultCPU = 0

	// DefaultStartTimeout bounds the wait for the readiness marker. A first
	// start after Provision can take minutes.
	DefaultStartTimeout = 5 * time.Minute

	// DefaultStopTimeout bounds the wait for the process group to exit
	// after SIGQUIT.
	DefaultStopTimeout = 10 * time.Second

	// DefaultPollInterval is the interval between readiness marker scans.
	DefaultPollInterval = 20 * time.Millisecond

	// DefaultArtifactDir is where the daemon writes markers and statistics.
	DefaultArtifactDir = "/tmp"

	// DefaultMarkerPattern matches readiness markers inside the artifact
	// directory.
	DefaultMarkerPattern = "kernfs*.pid"

	// DefaultStatsPattern matches statistics files inside the artifact
	// directory.
	DefaultStatsPattern = "kernfs_prof.*"

	// DefaultIndexPoolPath is the persistent index pool removed by Provision.
	DefaultIndexPoolPath = "/mnt/pmem/clevel.pool"

	// DefaultRunScript, DefaultMkfsScript, and DefaultServiceBinary are
	// resolved against <root>/kernfs/tests.
	DefaultRunScript     = "run.sh"
	DefaultMkfsScript    = "mkfs.sh"
	DefaultServiceBinary = "kernfs"
)
