package process

import (
	"errors"
	"fmt"
	"syscall"
)

// ProcessGroupOf returns the process group id of pid.
func ProcessGroupOf(pid int) (int, error) {
	pgid, err := syscall.Getpgid(pid)
	if err != nil {
		return 0, fmt.Errorf("getpgid %d: %w", pid, err)
	}
	return pgid, nil
}

// SignalGroup delivers sig to every member of process group pgid. A group
// that no longer exists is not an error.
func SignalGroup(pgid int, sig syscall.Signal) error {
	if pgid <= 1 || pgid == syscall.Getpgrp() {
		// kill(-1) and kill(0) address far more than one group, and our own
		// group would take the supervisor down with the service.
		return fmt.Errorf("refusing to signal process group %d", pgid)
	}
	if err := syscall.Kill(-pgid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("signal process group %d with %v: %w", pgid, sig, err)
	}
	return nil
}
