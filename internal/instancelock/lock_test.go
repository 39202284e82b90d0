package instancelock

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/gofrs/flock"
)

// lockFree reports whether another holder could take the lock on dir right
// now. A lock taken to check is released immediately.
func lockFree(t *testing.T, dir string) bool {
	t.Helper()
	fl := flock.New(PathFor(dir))
	locked, err := fl.TryLock()
	if err != nil {
		t.Fatalf("TryLock() error: %v", err)
	}
	if locked {
		_ = fl.Close()
	}
	return locked
}

func TestAcquire_ExcludesSecondHolder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first, err := Acquire(context.Background(), dir)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	defer first.Release(nil)

	if lockFree(t, dir) {
		t.Fatal("lock could be taken while held")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	if _, err := Acquire(ctx, dir); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Acquire() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestAcquire_AfterRelease(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first, err := Acquire(context.Background(), dir)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	first.Release(nil)
	first.Release(nil) // idempotent

	if !lockFree(t, dir) {
		t.Fatal("lock still held after release")
	}

	if _, err := os.Stat(PathFor(dir)); err != nil {
		t.Errorf("lock file should stay on disk: %v", err)
	}
}

func TestAcquire_CreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir() + "/artifacts"
	l, err := Acquire(context.Background(), dir)
	if err != nil {
		t.Fatalf("Acquire() error: %v", err)
	}
	defer l.Release(nil)

	if _, err := os.Stat(PathFor(dir)); err != nil {
		t.Errorf("lock file not created: %v", err)
	}
}

func TestNilLock(t *testing.T) {
	t.Parallel()

	var l *Lock
	l.Release(nil)
	l.Release(slog.Default())
}
