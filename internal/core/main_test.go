package core

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// workerEnv turns the test binary into a service worker that writes its pid
// to the named file and exits on SIGQUIT. Shell scripts cannot play this
// part: sh starts background children with SIGQUIT ignored.
const workerEnv = "KERNFS_TEST_WORKER"

func TestMain(m *testing.M) {
	if pidFile := os.Getenv(workerEnv); pidFile != "" {
		os.Exit(runWorker(pidFile))
	}
	goleak.VerifyTestMain(m)
}

func runWorker(pidFile string) int {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGQUIT)
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return 1
	}
	select {
	case <-quit:
		return 0
	case <-time.After(time.Minute):
		return 1
	}
}
