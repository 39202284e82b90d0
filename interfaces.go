package kernfsenv

import "context"

// Stats is the last statistics record written by the daemon. Its schema
// belongs to the daemon; numbers are json.Number.
type Stats map[string]any

// Service supervises one KernFS daemon.
//
// Callers must follow this lifecycle ordering:
//
//	NewService → [Provision] → Start → Stop → (Start → Stop)* → Close
//
// A Service is not safe for concurrent use.
type Service interface {
	// Provision reformats the storage devices with mkfs and removes the
	// persistent index pool. Returns ErrAlreadyStarted while the daemon
	// runs and ErrProvisionFailed when mkfs fails.
	Provision(ctx context.Context) error

	// Start launches the daemon and blocks until it writes a readiness
	// marker holding its pid. ctx bounds only the startup.
	//
	// Returns ErrAlreadyStarted if a daemon is held, ErrLaunchTimeout when
	// the start timeout passes, and ErrServiceExited when the daemon dies
	// first. On failure nothing is left running.
	Start(ctx context.Context) error

	// Stop sends SIGQUIT to the daemon's process group and waits for it to
	// exit. With stats gathering enabled it returns the last statistics
	// record. Statistics files are removed in every case.
	//
	// Without ignoreAlreadyDead, Stop returns ErrNotRunning if the daemon is
	// not running. Returns ErrShutdownTimeout when the group outlives the
	// stop timeout and ErrMissingArtifact when no statistics were found.
	Stop(ignoreAlreadyDead bool) (Stats, error)

	// IsRunning reports whether the daemon is alive. It never blocks.
	IsRunning() bool

	// PID returns the daemon's pid, or 0 when none is held.
	PID() int

	// RunID returns the ID of the current or last run, or "".
	RunID() string

	// Close stops a daemon that is still running, escalating to SIGKILL,
	// and releases every resource of the Service. Returns ErrStillRunning
	// if the daemon survived. Safe to call more than once.
	Close() error
}
