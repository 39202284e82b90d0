package core

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"time"

	"github.com/giantswarm/kernfsenv/internal/artifact"
	"github.com/giantswarm/kernfsenv/internal/metrics"
	"github.com/giantswarm/kernfsenv/internal/process"
)

// Stop sends SIGQUIT to the service's process group, waits for the group to
// exit, and returns the last statistics record when stats gathering is
// enabled. Statistics files are removed whether or not any earlier step
// failed.
//
// Without ignoreAlreadyDead, Stop on a service that is not running returns
// ErrNotRunning and changes nothing.
func (s *Service) Stop(ignoreAlreadyDead bool) (artifact.Record, error) {
	if !ignoreAlreadyDead && !s.proc.IsRunning() {
		return nil, fmt.Errorf("stop: %w", ErrNotRunning)
	}
	return s.shutdown(s.cfg.GatherStats, s.cfg.KillOnTimeout)
}

// shutdown terminates the held process, if any, escalating to SIGKILL when
// kill is set. It then gathers statistics if asked, archives and removes the
// statistics files, and releases the process once it is gone. A group that
// outlived the stop timeout stays held so that a later Stop or Close can
// retry.
func (s *Service) shutdown(gather, kill bool) (stats artifact.Record, retErr error) {
	start := time.Now()
	defer func() { s.cfg.Metrics.Observe(metrics.OpStop, start, retErr) }()

	held := s.proc.IsStarted()
	var primary error
	if held {
		if s.proc.IsRunning() {
			s.log.Info("stopping kernfs", "timeout", s.cfg.StopTimeout)
		} else {
			s.log.Info("kernfs already exited", "exit", s.proc.ExitErr())
		}
		if err := s.proc.StopGroup(process.StopOptions{
			Signal:        syscall.SIGQUIT,
			Timeout:       s.cfg.StopTimeout,
			KillOnTimeout: kill,
		}); err != nil {
			primary = fmt.Errorf("stop kernfs: %w", err)
		}
	}

	if gather && primary == nil {
		stats, primary = s.collectStats()
	}

	errs := []error{primary}
	if s.cfg.ArchiveDir != "" {
		written, err := artifact.Archive(s.cfg.ArtifactDir, s.statsPattern(), s.cfg.ArchiveDir, s.runID)
		if err != nil {
			errs = append(errs, fmt.Errorf("archive statistics files: %w", err))
		} else if len(written) > 0 {
			s.log.Debug("archived statistics files", "count", len(written), "dir", s.cfg.ArchiveDir)
		}
	}
	if err := s.removeStats(); err != nil {
		errs = append(errs, err)
	}

	if held && !s.proc.IsRunning() {
		s.finishRun(stats, primary)
		s.proc.Release()
		s.releaseLock()
		s.cfg.Metrics.SetRunning(false)
		if primary == nil {
			s.log.Info("kernfs stopped", "elapsed", time.Since(start))
		}
	}
	return stats, errors.Join(errs...)
}

// collectStats returns the last record of the current run's statistics.
func (s *Service) collectStats() (artifact.Record, error) {
	start := time.Now()
	stats, err := artifact.CollectStats(context.Background(), s.cfg.ArtifactDir, s.statsPattern())
	s.cfg.Metrics.Observe(metrics.OpCollect, start, err)
	if err != nil {
		return nil, fmt.Errorf("collect stats: %w", err)
	}
	return stats, nil
}

// finishRun completes the run history row opened by Start.
func (s *Service) finishRun(stats artifact.Record, runErr error) {
	if s.cfg.History == nil || s.startedAt.IsZero() {
		return
	}
	if err := s.cfg.History.Finish(context.Background(), s.runID, time.Now(), stats, runErr); err != nil {
		s.log.Warn("failed to record run result", "error", err)
	}
	s.startedAt = time.Time{}
}
