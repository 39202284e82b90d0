//go:build !linux

package process

import (
	"errors"
	"os/exec"
	"syscall"
)

// configureSysProcAttr starts the child in a new session. Parent-death
// signals are Linux-only.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

// GroupMembers reports whether process group pgid still has members. Without
// /proc the individual pids are unknown, so a non-empty group is reported as
// containing pgid itself.
func GroupMembers(pgid int) ([]int, error) {
	err := syscall.Kill(-pgid, 0)
	switch {
	case err == nil, errors.Is(err, syscall.EPERM):
		return []int{pgid}, nil
	case errors.Is(err, syscall.ESRCH):
		return nil, nil
	default:
		return nil, err
	}
}
