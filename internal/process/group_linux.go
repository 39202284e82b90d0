//go:build linux

package process

import (
	"fmt"
	"os/exec"
	"syscall"

	"github.com/prometheus/procfs"
)

// configureSysProcAttr starts the child in a new session and asks the kernel
// to send it SIGQUIT if the supervisor dies, so a crashed supervisor does not
// leave the service holding the storage devices.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:    true,
		Pdeathsig: syscall.SIGQUIT,
	}
}

// GroupMembers returns the pids of live members of process group pgid.
// Zombies are not counted: they hold no resources and are reaped by whoever
// inherited them.
func GroupMembers(pgid int) ([]int, error) {
	procs, err := procfs.AllProcs()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	var members []int
	for _, p := range procs {
		stat, err := p.Stat()
		if err != nil {
			// Exited between listing and reading its stat file.
			continue
		}
		if stat.PGRP != pgid {
			continue
		}
		if stat.State == "Z" || stat.State == "X" {
			continue
		}
		members = append(members, stat.PID)
	}
	return members, nil
}
