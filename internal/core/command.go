package core

import (
	"context"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/giantswarm/kernfsenv/internal/process"
)

// mkfsWaitDelay bounds how long Run waits for mkfs output pipes after the
// group was killed on cancellation.
const mkfsWaitDelay = 5 * time.Second

// numactlArgs binds execution and memory to the configured NUMA node.
func (c Config) numactlArgs() []string {
	n := strconv.Itoa(c.NUMANode)
	return []string{"numactl", "-N", n, "-m", n}
}

// mkfsCommand builds "numactl -N n -m n <dir>/mkfs.sh". When ctx ends the
// whole mkfs process group is killed, not only its leader.
func (c Config) mkfsCommand(ctx context.Context) *exec.Cmd {
	script := filepath.Join(c.ServiceDir(), c.MkfsScript)
	args := []string{script}
	if c.Placement {
		args = append(c.numactlArgs(), script)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // G204: fixed tool with configured arguments
	cmd.Cancel = func() error {
		// mkfs runs as a session leader, so its pid is its group id.
		return process.SignalGroup(cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = mkfsWaitDelay
	return cmd
}

// launchCommand builds
// "<dir>/run.sh taskset -c cpu numactl -N n -m n <dir>/kernfs" with env as
// the child environment.
func (c Config) launchCommand(env []string) *exec.Cmd {
	dir := c.ServiceDir()
	var args []string
	if c.Placement {
		args = append(args, "taskset", "-c", strconv.Itoa(c.CPU))
		args = append(args, c.numactlArgs()...)
	}
	args = append(args, filepath.Join(dir, c.ServiceBinary))

	cmd := exec.Command(filepath.Join(dir, c.RunScript), args...) //nolint:gosec // G204: configured script path
	cmd.Env = env
	return cmd
}
