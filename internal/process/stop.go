package process

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/giantswarm/kernfsenv/internal/sentinel"
	"k8s.io/apimachinery/pkg/util/wait"
)

// ErrStopTimeout is returned by StopGroup when the leader or another member
// of its group is still alive after the stop timeout.
const ErrStopTimeout = sentinel.Error("process group did not exit within the stop timeout")

// DefaultStopTimeout bounds StopGroup when StopOptions.Timeout is zero.
const DefaultStopTimeout = 10 * time.Second

// killDrainTimeout bounds the wait after SIGKILL. SIGKILL cannot be caught,
// so hitting it means the kernel is stuck on the process (e.g. D state on a
// DAX device).
const killDrainTimeout = 10 * time.Second

// groupDrainInterval is the poll interval while waiting for the non-leader
// members of a group to exit.
const groupDrainInterval = 10 * time.Millisecond

// minGroupDrain is the least time granted to the group drain even when the
// leader consumed the whole stop timeout.
const minGroupDrain = 100 * time.Millisecond

// StopOptions controls StopGroup.
type StopOptions struct {
	Signal        syscall.Signal // graceful signal sent to the group
	Timeout       time.Duration  // total budget for the leader and the group
	KillOnTimeout bool           // escalate to SIGKILL instead of failing
}

// StopGroup signals the process group of the held process and waits for the
// leader to be reaped and for every other member to exit. With KillOnTimeout
// unset, a group still alive after Timeout yields ErrStopTimeout and the
// processes are left as they are for the operator.
//
// When the leader has already exited, the signal still goes to the group if
// any member is left. StopGroup does not forget the process; callers call
// Release afterwards. Calling it when nothing is held, or after the leader
// has exited and its group has drained, returns nil.
func (b *BaseProcess) StopGroup(opts StopOptions) error {
	if b.exit == nil {
		return nil
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultStopTimeout
	}
	deadline := time.Now().Add(opts.Timeout)

	pid := b.PID()
	pgid, err := ProcessGroupOf(pid)
	if err != nil {
		// The leader was reaped between the caller's liveness check and
		// here. It was started with Setsid, so its group id is its pid.
		b.log.Debug("getpgid failed, using pid as group id", "process", b.name, "pid", pid, "error", err)
		pgid = pid
	}

	if b.IsRunning() {
		b.log.Debug("signaling process group", "process", b.name, "pgid", pgid, "signal", opts.Signal)
		if err := SignalGroup(pgid, opts.Signal); err != nil {
			return err
		}
	} else {
		// The leader is gone but workers it forked keep its group id.
		members, err := GroupMembers(pgid)
		if err != nil {
			return fmt.Errorf("%s: check process group %d: %w", b.name, pgid, err)
		}
		if len(members) > 0 {
			b.log.Debug("leader exited, signaling remaining group members",
				"process", b.name, "pgid", pgid, "members", members, "signal", opts.Signal)
			if err := SignalGroup(pgid, opts.Signal); err != nil {
				return err
			}
		}
	}

	if err := b.waitLeader(pgid, opts); err != nil {
		return err
	}

	drain := max(time.Until(deadline), minGroupDrain)
	if err := waitGroupGone(pgid, drain); err != nil {
		if !opts.KillOnTimeout {
			return fmt.Errorf("%s: %w", b.name, err)
		}
		b.log.Warn("process group members outlived the leader; sending SIGKILL",
			"process", b.name, "pgid", pgid)
		if killErr := SignalGroup(pgid, syscall.SIGKILL); killErr != nil {
			return killErr
		}
		if err := waitGroupGone(pgid, killDrainTimeout); err != nil {
			return fmt.Errorf("%s after SIGKILL: %w", b.name, err)
		}
	}
	return nil
}

// waitLeader waits for the leader to be reaped by the wait goroutine.
func (b *BaseProcess) waitLeader(pgid int, opts StopOptions) error {
	timer := time.NewTimer(opts.Timeout)
	defer timer.Stop()

	select {
	case <-b.exit.done:
		return nil
	case <-timer.C:
	}

	if !opts.KillOnTimeout {
		return fmt.Errorf("%s pid %d still running after %v: %w", b.name, b.PID(), opts.Timeout, ErrStopTimeout)
	}

	b.log.Warn("process did not exit after graceful signal; sending SIGKILL",
		"process", b.name, "pid", b.PID(), "timeout", opts.Timeout)
	if err := SignalGroup(pgid, syscall.SIGKILL); err != nil {
		return err
	}
	if !waitClosed(b.exit.done, killDrainTimeout) {
		return fmt.Errorf("%s pid %d still running after SIGKILL: %w", b.name, b.PID(), ErrStopTimeout)
	}
	return nil
}

// waitGroupGone polls until process group pgid has no live members.
func waitGroupGone(pgid int, timeout time.Duration) error {
	var remaining []int
	err := wait.PollUntilContextTimeout(context.Background(), groupDrainInterval, timeout, true,
		func(context.Context) (bool, error) {
			members, err := GroupMembers(pgid)
			if err != nil {
				return false, err
			}
			remaining = members
			return len(members) == 0, nil
		})
	if err == nil {
		return nil
	}
	if wait.Interrupted(err) {
		return fmt.Errorf("process group %d still has members %v: %w", pgid, remaining, ErrStopTimeout)
	}
	return fmt.Errorf("check process group %d: %w", pgid, err)
}

// waitClosed reports whether ch was closed within timeout.
func waitClosed(ch <-chan struct{}, timeout time.Duration) bool {
	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case <-ch:
		return true
	case <-t.C:
		return false
	}
}
