package artifact

import (
	"fmt"
	"path/filepath"

	"github.com/giantswarm/kernfsenv/internal/fileutil"
)

// Archive copies every file in dir matching pattern into dest, naming each
// copy "<prefix>-<basename>". It returns the paths written. Archive does not
// remove the originals.
func Archive(dir, pattern, dest, prefix string) ([]string, error) {
	files, err := Match(dir, pattern)
	if err != nil {
		return nil, err
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		name := filepath.Base(f)
		if prefix != "" {
			name = prefix + "-" + name
		}
		target := filepath.Join(dest, name)
		if err := fileutil.CopyFileAtomic(f, target, 0o644); err != nil {
			return written, fmt.Errorf("archive %s: %w", f, err)
		}
		written = append(written, target)
	}
	return written, nil
}
