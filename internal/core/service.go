package core

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/giantswarm/kernfsenv/internal/artifact"
	"github.com/giantswarm/kernfsenv/internal/fileutil"
	"github.com/giantswarm/kernfsenv/internal/instancelock"
	"github.com/giantswarm/kernfsenv/internal/process"
)

// processName names the service process in logs and log file names.
const processName = "kernfs"

// Service supervises one KernFS daemon.
//
// Service is not safe for concurrent use. One goroutine drives it through
// Provision, Start, Stop, and Close; the only internal goroutine is the one
// reaping the child.
type Service struct {
	cfg Config

	proc      process.BaseProcess
	lock      *instancelock.Lock
	runID     string
	startedAt time.Time

	log *slog.Logger
}

// New validates cfg and returns a Service. No subprocess is spawned. The
// service directory must exist, otherwise New returns ErrServiceDirNotFound.
func New(cfg Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kernfs config: %w", err)
	}

	dir := cfg.ServiceDir()
	if !fileutil.IsDir(dir) {
		return nil, fmt.Errorf("%s: %w", dir, ErrServiceDirNotFound)
	}

	cfg.Env = slices.Clone(cfg.Env)
	log := Logger()
	return &Service{
		cfg:  cfg,
		proc: process.NewBaseProcess(processName, log),
		log:  log,
	}, nil
}

// IsRunning reports whether the service process is alive. It never blocks.
func (s *Service) IsRunning() bool {
	return s.proc.IsRunning()
}

// PID returns the pid of the held service process, or 0.
func (s *Service) PID() int {
	return s.proc.PID()
}

// RunID returns the ID of the current or most recent run, or "" before the
// first Start.
func (s *Service) RunID() string {
	return s.runID
}

// ServiceDir returns the directory the service runs in.
func (s *Service) ServiceDir() string {
	return s.cfg.ServiceDir()
}

// Close tears the service down. A running service is stopped without
// gathering statistics, escalating to SIGKILL after the stop timeout, and
// must be dead afterwards, otherwise Close returns
// ErrStillRunning. Statistics files are always removed. Close may be called
// more than once.
func (s *Service) Close() error {
	var errs []error

	if s.proc.IsStarted() {
		if s.proc.IsRunning() {
			s.log.Warn("closing a running kernfs; stopping it", "pid", s.proc.PID(), "run_id", s.runID)
		}
		if _, err := s.shutdown(false, true); err != nil {
			errs = append(errs, err)
		}
		if s.proc.IsRunning() {
			errs = append(errs, fmt.Errorf("pid %d: %w", s.proc.PID(), ErrStillRunning))
			return errors.Join(errs...)
		}
	} else if err := s.removeStats(); err != nil {
		errs = append(errs, err)
	}

	s.releaseLock()
	return errors.Join(errs...)
}

// markerPattern and statsPattern expand the configured patterns for the
// current run.
func (s *Service) markerPattern() string {
	return artifact.Expand(s.cfg.MarkerPattern, s.runID)
}

func (s *Service) statsPattern() string {
	return artifact.Expand(s.cfg.StatsPattern, s.runID)
}

// removeStats deletes every statistics file of the current run.
func (s *Service) removeStats() error {
	removed, err := artifact.Remove(s.cfg.ArtifactDir, s.statsPattern())
	s.cfg.Metrics.ArtifactsRemoved(len(removed))
	if len(removed) > 0 {
		s.log.Debug("removed statistics files", "count", len(removed))
	}
	if err != nil {
		return fmt.Errorf("remove statistics files: %w", err)
	}
	return nil
}

func (s *Service) releaseLock() {
	s.lock.Release(s.log)
	s.lock = nil
}

// output returns where the child's stdout and stderr go.
func (s *Service) output() process.Output {
	return process.Output{Verbose: s.cfg.Verbose, LogDir: s.cfg.LogDir}
}
