package artifact

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadMarkerPID returns the process id stored in a readiness marker. The
// service writes it as decimal text; whitespace and NUL padding are ignored.
func ReadMarkerPID(path string) (int, error) {
	b, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the configured marker glob
	if err != nil {
		return 0, fmt.Errorf("read marker %s: %w", path, err)
	}
	text := strings.TrimSpace(strings.Trim(string(b), "\x00"))
	pid, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("parse marker %s: %w", path, err)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("parse marker %s: pid %d is not positive", path, pid)
	}
	return pid, nil
}

// FindMarker returns the first marker in dir matching pattern that names pid,
// or "" when none does. Markers left by crashed earlier runs, and markers
// that are still being written, are skipped: only an exact pid match counts.
func FindMarker(dir, pattern string, pid int) (string, error) {
	files, err := Match(dir, pattern)
	if err != nil {
		return "", err
	}
	for _, f := range files {
		got, err := ReadMarkerPID(f)
		if err != nil {
			continue
		}
		if got == pid {
			return f, nil
		}
	}
	return "", nil
}
