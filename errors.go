package kernfsenv

import "github.com/giantswarm/kernfsenv/internal/core"

// Sentinel errors for error inspection with errors.Is.
// These are immutable constants safe for use in wrapped error chain comparison.
const (
	// ErrNotRunning is returned by Stop(false) when the daemon is not
	// running, and by Start when the daemon died during the stats reset.
	ErrNotRunning = core.ErrNotRunning

	// ErrAlreadyStarted is returned by Start while a daemon is held, and by
	// Provision while it runs.
	ErrAlreadyStarted = core.ErrAlreadyStarted

	// ErrLaunchTimeout is returned by Start when no readiness marker naming
	// the daemon appeared within the start timeout.
	ErrLaunchTimeout = core.ErrLaunchTimeout

	// ErrServiceExited is returned by Start when the daemon exited before
	// becoming ready.
	ErrServiceExited = core.ErrServiceExited

	// ErrProvisionFailed is returned by Provision when mkfs fails or the
	// index pool cannot be removed.
	ErrProvisionFailed = core.ErrProvisionFailed

	// ErrShutdownTimeout is returned by Stop when the process group is still
	// alive after the stop timeout.
	ErrShutdownTimeout = core.ErrShutdownTimeout

	// ErrMissingArtifact is returned when statistics are requested but no
	// statistics file yields a record.
	ErrMissingArtifact = core.ErrMissingArtifact

	// ErrNoStatsRecords accompanies ErrMissingArtifact when statistics files
	// exist but are empty.
	ErrNoStatsRecords = core.ErrNoStatsRecords

	// ErrMalformedArtifact is returned when a statistics file is not a JSON
	// array.
	ErrMalformedArtifact = core.ErrMalformedArtifact

	// ErrServiceDirNotFound is returned by NewService when the root has no
	// kernfs/tests directory.
	ErrServiceDirNotFound = core.ErrServiceDirNotFound

	// ErrStillRunning is returned by Close when the daemon survived teardown.
	ErrStillRunning = core.ErrStillRunning
)
