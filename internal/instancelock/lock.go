package instancelock

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/giantswarm/kernfsenv/internal/fileutil"
	"github.com/gofrs/flock"
)

// FileName is the lock file created inside the guarded directory.
const FileName = ".kernfsenv.lock"

// retryInterval is the interval between consecutive attempts to take the lock.
const retryInterval = 50 * time.Millisecond

// Lock is an exclusive advisory lock held on a directory.
type Lock struct {
	fl *flock.Flock
}

// PathFor returns the lock file path for dir.
func PathFor(dir string) string {
	return filepath.Join(dir, FileName)
}

// Acquire takes an exclusive lock on dir, retrying until ctx is done.
func Acquire(ctx context.Context, dir string) (*Lock, error) {
	if err := fileutil.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("prepare lock directory: %w", err)
	}
	path := PathFor(dir)
	fl := flock.New(path)

	locked, err := fl.TryLockContext(ctx, retryInterval)
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !locked {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", path, ctx.Err())
		}
		return nil, fmt.Errorf("acquire lock %s: lock not acquired", path)
	}
	return &Lock{fl: fl}, nil
}

// Release unlocks and closes the lock file. The file stays on disk: removing
// it could invalidate a lock another process took on the same inode. Release
// is nil-safe and idempotent; errors are logged at debug level.
func (l *Lock) Release(logger *slog.Logger) {
	if l == nil || l.fl == nil {
		return
	}
	if err := l.fl.Close(); err != nil && logger != nil {
		logger.Debug("failed to release instance lock", "path", l.fl.Path(), "error", err)
	}
	l.fl = nil
}
