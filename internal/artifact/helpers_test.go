package artifact

import (
	"os"
	"path/filepath"
	"testing"
)

// writeArtifact writes content to dir/name and returns the path.
func writeArtifact(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
