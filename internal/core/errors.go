package core

import (
	"github.com/giantswarm/kernfsenv/internal/artifact"
	"github.com/giantswarm/kernfsenv/internal/process"
	"github.com/giantswarm/kernfsenv/internal/sentinel"
)

// Precondition violations.
const (
	// ErrNotRunning is returned by Stop without ignoreAlreadyDead, and by the
	// stats reset step, when the service is not running.
	ErrNotRunning = sentinel.Error("kernfs is not running")

	// ErrAlreadyStarted is returned by Start while a process is held and by
	// Provision while the service runs.
	ErrAlreadyStarted = sentinel.Error("kernfs already started")
)

// ErrServiceDirNotFound is returned by New when <root>/kernfs/tests is
// missing.
const ErrServiceDirNotFound = sentinel.Error("kernfs service directory not found")

// ErrProvisionFailed is returned when mkfs exits non-zero or the index pool
// cannot be removed.
const ErrProvisionFailed = sentinel.Error("kernfs provisioning failed")

// ErrStillRunning is returned by Close when the service survived the
// best-effort stop.
const ErrStillRunning = sentinel.Error("kernfs still running after teardown")

// Errors shared with the lower layers. They are the same constants, so
// errors.Is matches them regardless of which layer wrapped them.
const (
	// ErrLaunchTimeout is returned by Start when no readiness marker naming
	// the child appeared before the start timeout.
	ErrLaunchTimeout = process.ErrReadyTimeout

	// ErrServiceExited is returned by Start when the child exited before
	// writing its readiness marker.
	ErrServiceExited = process.ErrProcessExited

	// ErrShutdownTimeout is returned by Stop when the process group is still
	// alive after the stop timeout.
	ErrShutdownTimeout = process.ErrStopTimeout

	// ErrMissingArtifact is returned when stats gathering finds no usable
	// statistics file.
	ErrMissingArtifact = artifact.ErrMissingArtifact

	// ErrNoStatsRecords accompanies ErrMissingArtifact when statistics files
	// exist but hold no record.
	ErrNoStatsRecords = artifact.ErrNoRecords

	// ErrMalformedArtifact is returned when a statistics file is not a JSON
	// array.
	ErrMalformedArtifact = artifact.ErrMalformedArtifact
)
