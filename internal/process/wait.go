package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/giantswarm/kernfsenv/internal/sentinel"
	"k8s.io/apimachinery/pkg/util/wait"
)

// Errors returned by WaitReady. Callers match them with errors.Is.
const (
	// ErrIntervalNotPositive indicates a non-positive poll interval.
	ErrIntervalNotPositive = sentinel.Error("interval must be positive")

	// ErrTimeoutNotPositive indicates a non-positive timeout.
	ErrTimeoutNotPositive = sentinel.Error("timeout must be positive")

	// ErrProcessExited indicates the process exited before becoming ready.
	ErrProcessExited = sentinel.Error("process exited before becoming ready")

	// ErrReadyTimeout indicates the readiness deadline passed.
	ErrReadyTimeout = sentinel.Error("timed out waiting for readiness")
)

// ReadinessCheck reports whether the process is ready. attempt is 1-based.
// A non-nil error aborts polling.
type ReadinessCheck func(ctx context.Context, attempt int) (ready bool, err error)

// WaitReadyConfig configures WaitReady.
type WaitReadyConfig struct {
	Interval      time.Duration   // Poll interval
	Timeout       time.Duration   // Overall deadline
	Name          string          // For logging and errors
	Logger        *slog.Logger    // Optional, defaults to slog.Default()
	ProcessExited <-chan struct{} // If non-nil, abort as soon as it is closed
}

// WaitReady calls check every Interval until it reports ready, returns an
// error, the process exits, ctx ends, or Timeout passes. The first check runs
// immediately. Hitting the deadline yields ErrReadyTimeout; a canceled ctx
// yields the context error.
func WaitReady(ctx context.Context, cfg WaitReadyConfig, check ReadinessCheck) error {
	if cfg.Name == "" {
		return errors.New("wait ready: name must not be empty")
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("wait for %s: %w", cfg.Name, ErrIntervalNotPositive)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("wait for %s: %w", cfg.Name, ErrTimeoutNotPositive)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	start := time.Now()
	// PollUntilContextTimeout runs the condition sequentially, so attempt
	// needs no synchronization.
	attempt := 0
	err := wait.PollUntilContextTimeout(ctx, cfg.Interval, cfg.Timeout, true,
		func(pollCtx context.Context) (bool, error) {
			// An exited process can never become ready; checking first avoids
			// burning the whole deadline on a crash at startup.
			if cfg.ProcessExited != nil {
				select {
				case <-cfg.ProcessExited:
					return false, fmt.Errorf("process %s: %w", cfg.Name, ErrProcessExited)
				default:
				}
			}

			attempt++
			ready, err := check(pollCtx, attempt)
			if err != nil {
				return false, err
			}
			if ready {
				log.Debug("wait succeeded", "name", cfg.Name, "attempt", attempt, "elapsed", time.Since(start))
			}
			return ready, nil
		})
	if err == nil {
		return nil
	}

	if wait.Interrupted(err) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("wait for %s: %w", cfg.Name, ctxErr)
		}
		return fmt.Errorf("wait for %s after %d attempts in %v: %w", cfg.Name, attempt, cfg.Timeout, ErrReadyTimeout)
	}
	return fmt.Errorf("wait for %s: %w", cfg.Name, err)
}
