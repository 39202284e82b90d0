package core

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/giantswarm/kernfsenv/internal/instancelock"
	"github.com/gofrs/flock"
)

// Tests that write scripts do not run in parallel: a fork in another test
// while a script is still open for writing leaves the descriptor in that
// child, and exec of the script then fails with ETXTBSY.

// testDirEnv tells the fake service where the artifact directory is.
const testDirEnv = "KERNFS_TEST_DIR"

// Fake service bodies. run.sh execs its arguments, so the marker the daemon
// writes holds the pid the supervisor spawned.
const (
	runScript = `exec "$@"`

	// readyService writes its marker, then idles in a foreground child until
	// SIGQUIT reaches the group; it writes one statistics file on the way out.
	readyService = `trap 'printf "[{\"a\":3}]" > "$KERNFS_TEST_DIR/kernfs_prof.0"; exit 0' QUIT
echo $$ > "$KERNFS_TEST_DIR/kernfs.pid"
while :; do sleep 0.05; done`

	// slowReadyService writes its marker after a short delay.
	slowReadyService = `trap 'exit 0' QUIT
sleep 0.1
echo $$ > "$KERNFS_TEST_DIR/kernfs.pid"
while :; do sleep 0.05; done`

	// silentService never writes a marker.
	silentService = `trap 'exit 0' QUIT
while :; do sleep 0.05; done`

	// crashingService exits before writing a marker.
	crashingService = `exit 3`

	// stubbornService ignores SIGQUIT.
	stubbornService = `trap '' QUIT
echo $$ > "$KERNFS_TEST_DIR/kernfs.pid"
while :; do sleep 0.05; done`

	// workerService keeps one long-lived child in its group.
	workerService = `trap 'exit 0' QUIT
echo $$ > "$KERNFS_TEST_DIR/kernfs.pid"
sleep 60`

	// resetService records SIGUSR2.
	resetService = `trap 'exit 0' QUIT
trap 'touch "$KERNFS_TEST_DIR/reset"' USR2
echo $$ > "$KERNFS_TEST_DIR/kernfs.pid"
while :; do sleep 0.05; done`

	// runScopedService names its artifacts after the run ID.
	runScopedService = `trap 'printf "[{\"run\":\"%s\"}]" "$KERNFS_RUN_ID" > "$KERNFS_TEST_DIR/kernfs_prof.$KERNFS_RUN_ID.0"; exit 0' QUIT
echo $$ > "$KERNFS_TEST_DIR/kernfs-$KERNFS_RUN_ID.pid"
while :; do sleep 0.05; done`

	// forkingService starts a worker in its group, writes its statistics, and
	// exits shortly after becoming ready, leaving the worker behind.
	forkingService = `KERNFS_TEST_WORKER="$KERNFS_TEST_DIR/worker.pid" "$KERNFS_TEST_BIN" &
echo $$ > "$KERNFS_TEST_DIR/kernfs.pid"
printf '[{"a":5}]' > "$KERNFS_TEST_DIR/kernfs_prof.0"
sleep 0.5
exit 0`

	okMkfs = `echo formatted > "$KERNFS_TEST_DIR/mkfs.ran"`
)

// testBinEnv tells forkingService where the test binary is.
const testBinEnv = "KERNFS_TEST_BIN"

// fakeRoot builds <root>/kernfs/tests with run.sh, kernfs, and mkfs.sh and
// returns root.
func fakeRoot(t *testing.T, service, mkfs string) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, filepath.FromSlash(ServiceSubdir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create service dir: %v", err)
	}
	writeScript(t, filepath.Join(dir, "run.sh"), runScript)
	writeScript(t, filepath.Join(dir, "kernfs"), service)
	writeScript(t, filepath.Join(dir, "mkfs.sh"), mkfs)
	return root
}

func writeScript(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil { //nolint:gosec // G306: scripts must be executable
		t.Fatalf("write %s: %v", path, err)
	}
}

// testConfig returns a valid Config for a fake root with placement disabled
// and short timeouts.
func testConfig(t *testing.T, root, artifactDir string) Config {
	t.Helper()
	return Config{
		RootPath:      root,
		Env:           append(os.Environ(), testDirEnv+"="+artifactDir),
		ArtifactDir:   artifactDir,
		MarkerPattern: "kernfs*.pid",
		StatsPattern:  "kernfs_prof.*",
		IndexPoolPath: filepath.Join(t.TempDir(), "clevel.pool"),
		RunScript:     "run.sh",
		MkfsScript:    "mkfs.sh",
		ServiceBinary: "kernfs",
		StartTimeout:  10 * time.Second,
		StopTimeout:   5 * time.Second,
		PollInterval:  20 * time.Millisecond,
	}
}

// newTestService creates a Service and registers a Close that must leave
// nothing running.
func newTestService(t *testing.T, cfg Config) *Service {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	})
	return s
}

// waitFor polls cond until it holds or timeout passes.
func waitFor(t *testing.T, timeout time.Duration, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out after %v waiting for %s", timeout, what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func readPID(t *testing.T, path string) int {
	t.Helper()
	b, err := os.ReadFile(path) //nolint:gosec // G304: test-controlled path
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		t.Fatalf("parse pid from %s: %v", path, err)
	}
	return pid
}

// lockFree reports whether the artifact directory lock could be taken now.
func lockFree(t *testing.T, dir string) bool {
	t.Helper()
	fl := flock.New(instancelock.PathFor(dir))
	locked, err := fl.TryLock()
	if err != nil {
		t.Fatalf("TryLock() error: %v", err)
	}
	if locked {
		_ = fl.Close()
	}
	return locked
}
