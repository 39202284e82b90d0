package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// RunPlaceholder is replaced by the run identifier in artifact patterns.
const RunPlaceholder = "{run}"

// Expand substitutes runID for every RunPlaceholder in pattern.
func Expand(pattern, runID string) string {
	return strings.ReplaceAll(pattern, RunPlaceholder, runID)
}

// IsRunScoped reports whether pattern contains RunPlaceholder.
func IsRunScoped(pattern string) bool {
	return strings.Contains(pattern, RunPlaceholder)
}

// Match returns the regular files in dir matching pattern, sorted by path.
// A missing dir yields no matches.
func Match(dir, pattern string) ([]string, error) {
	if pattern == "" {
		return nil, errors.New("artifact pattern must not be empty")
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid artifact pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	// Globbing inside an os.DirFS keeps meta characters in dir itself from
	// being interpreted.
	matches, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %s in %s: %w", pattern, dir, err)
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		path := filepath.Join(dir, filepath.FromSlash(m))
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, path)
	}
	slices.Sort(files)
	return files, nil
}

// Remove deletes every file in dir matching pattern and returns the paths it
// removed. Files that vanish concurrently are not an error; every other
// failure is collected and returned together.
func Remove(dir, pattern string) ([]string, error) {
	files, err := Match(dir, pattern)
	if err != nil {
		return nil, err
	}

	var (
		removed []string
		errs    []error
	)
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			errs = append(errs, fmt.Errorf("remove %s: %w", f, err))
			continue
		}
		removed = append(removed, f)
	}
	return removed, errors.Join(errs...)
}
