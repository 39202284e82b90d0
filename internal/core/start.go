package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"syscall"
	"time"

	"github.com/giantswarm/kernfsenv/internal/artifact"
	"github.com/giantswarm/kernfsenv/internal/instancelock"
	"github.com/giantswarm/kernfsenv/internal/metrics"
	"github.com/giantswarm/kernfsenv/internal/process"
	"github.com/google/uuid"
)

// Start launches the service and blocks until it writes a readiness marker
// naming its own pid, then resets its statistics.
//
// ctx bounds only the startup; the service keeps running after Start
// returns. On any failure the spawned process group is torn down and the
// Service returns to the not-started state.
func (s *Service) Start(ctx context.Context) (retErr error) {
	start := time.Now()
	defer func() { s.cfg.Metrics.Observe(metrics.OpStart, start, retErr) }()

	if s.proc.IsStarted() {
		return fmt.Errorf("start: pid %d: %w", s.proc.PID(), ErrAlreadyStarted)
	}

	runID := uuid.NewString()
	if !s.cfg.runScoped() {
		lock, err := instancelock.Acquire(ctx, s.cfg.ArtifactDir)
		if err != nil {
			return fmt.Errorf("lock artifact directory: %w", err)
		}
		s.lock = lock
	}
	s.runID = runID
	s.log = Logger().With("run_id", runID)

	if err := s.removeStats(); err != nil {
		s.releaseLock()
		return err
	}

	env := append(slices.Clone(s.cfg.Env), RunIDEnv+"="+s.runID)
	s.proc = process.NewBaseProcess(processName, s.log)
	if err := s.proc.Start(s.cfg.launchCommand(env), s.cfg.ServiceDir(), s.output()); err != nil {
		s.releaseLock()
		return err
	}
	pid := s.proc.PID()
	s.log = s.log.With("pid", pid)
	s.log.Info("kernfs launched, waiting for readiness marker",
		"numa_node", s.cfg.NUMANode, "cpu", s.cfg.CPU, "timeout", s.cfg.StartTimeout)

	if err := s.waitReady(ctx, pid); err != nil {
		return s.abortStart(err)
	}
	if err := s.resetStats(); err != nil {
		return s.abortStart(err)
	}

	s.startedAt = time.Now()
	s.cfg.Metrics.SetRunning(true)
	if s.cfg.History != nil {
		if err := s.cfg.History.Begin(context.WithoutCancel(ctx), s.runID, pid, s.cfg.NUMANode, s.startedAt); err != nil {
			s.log.Warn("failed to record run", "error", err)
		}
	}
	s.log.Info("kernfs ready", "elapsed", time.Since(start))
	return nil
}

// waitReady polls the artifact directory until a marker holds pid.
func (s *Service) waitReady(ctx context.Context, pid int) error {
	pattern := s.markerPattern()
	err := process.WaitReady(ctx, process.WaitReadyConfig{
		Interval:      s.cfg.PollInterval,
		Timeout:       s.cfg.StartTimeout,
		Name:          processName,
		Logger:        s.log,
		ProcessExited: s.proc.Exited(),
	}, func(_ context.Context, attempt int) (bool, error) {
		marker, err := artifact.FindMarker(s.cfg.ArtifactDir, pattern, pid)
		if err != nil {
			return false, err
		}
		if marker == "" {
			return false, nil
		}
		s.log.Debug("readiness marker found", "marker", marker, "attempt", attempt)
		return true, nil
	})
	if err != nil && errors.Is(err, ErrServiceExited) {
		if exitErr := s.proc.ExitErr(); exitErr != nil {
			return fmt.Errorf("%w: %w", err, exitErr)
		}
	}
	return err
}

// resetStats clears the statistics the service gathered during its own
// initialization. The service must be running.
func (s *Service) resetStats() error {
	if !s.proc.IsRunning() {
		return fmt.Errorf("reset stats: %w", ErrNotRunning)
	}
	if !s.cfg.ResetStatsSignal {
		return nil
	}
	if err := s.proc.Signal(syscall.SIGUSR2); err != nil {
		return fmt.Errorf("reset stats: %w", err)
	}
	if !s.proc.IsRunning() {
		return fmt.Errorf("reset stats killed kernfs: %w", ErrNotRunning)
	}
	s.log.Debug("statistics reset")
	return nil
}

// abortStart tears down a process that never became usable and returns cause
// joined with any teardown failure.
func (s *Service) abortStart(cause error) error {
	s.log.Warn("kernfs failed to start, tearing down", "error", cause)

	errs := []error{fmt.Errorf("start kernfs: %w", cause)}
	if err := s.proc.StopGroup(process.StopOptions{
		Signal:        syscall.SIGQUIT,
		Timeout:       s.cfg.StopTimeout,
		KillOnTimeout: true,
	}); err != nil {
		errs = append(errs, fmt.Errorf("tear down kernfs: %w", err))
	}
	if err := s.removeStats(); err != nil {
		errs = append(errs, err)
	}
	if !s.proc.IsRunning() {
		s.proc.Release()
		s.releaseLock()
	}
	return errors.Join(errs...)
}
