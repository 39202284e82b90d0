package process

import (
	"os"
	"os/exec"
	"syscall"
	"testing"
	"time"
)

const sigTerm = syscall.SIGTERM

// startSleeper starts a long sleep in its own session and registers a
// cleanup that kills its group and waits for it to be reaped.
func startSleeper(t *testing.T) *BaseProcess {
	t.Helper()
	return startShell(t, "exec sleep 60")
}

// startShell starts "sh -c script" in its own session and registers a
// cleanup that kills its group and waits for it to be reaped.
func startShell(t *testing.T, script string, args ...string) *BaseProcess {
	t.Helper()

	bp := NewBaseProcess("test", nil)
	cmd := exec.Command("sh", append([]string{"-c", script, "sh"}, args...)...)
	if err := bp.Start(cmd, t.TempDir(), Output{}); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	pid := bp.PID()
	exited := bp.Exited()
	t.Cleanup(func() {
		_ = syscall.Kill(-pid, syscall.SIGKILL)
		select {
		case <-exited:
		case <-time.After(10 * time.Second):
			t.Errorf("process %d not reaped during cleanup", pid)
		}
		bp.Release()
	})
	return &bp
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := readFileErr(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return b
}

func readFileErr(path string) (string, error) {
	b, err := os.ReadFile(path) //nolint:gosec // G304: test-controlled path
	return string(b), err
}
