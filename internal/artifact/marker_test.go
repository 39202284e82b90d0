package artifact

import (
	"path/filepath"
	"testing"
)

func TestReadMarkerPID(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content string
		want    int
		wantErr bool
	}{
		"plain":            {content: "1234", want: 1234},
		"trailing newline": {content: "1234\n", want: 1234},
		"nul padded":       {content: "1234\x00\x00", want: 1234},
		"empty":            {content: "", wantErr: true},
		"half written":     {content: "12a", wantErr: true},
		"zero":             {content: "0", wantErr: true},
		"negative":         {content: "-5", wantErr: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := writeArtifact(t, t.TempDir(), "kernfs.pid", tc.content)

			got, err := ReadMarkerPID(path)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ReadMarkerPID() = %d, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadMarkerPID() error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ReadMarkerPID() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestReadMarkerPID_Missing(t *testing.T) {
	t.Parallel()

	if _, err := ReadMarkerPID(filepath.Join(t.TempDir(), "kernfs.pid")); err == nil {
		t.Fatal("expected error for missing marker")
	}
}

func TestFindMarker_MatchesOnlyOwnPID(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeArtifact(t, dir, "kernfs.pid", "111")    // stale marker from a crashed run
	writeArtifact(t, dir, "kernfs-b.pid", "junk") // unreadable
	own := writeArtifact(t, dir, "kernfs-c.pid", "222")
	writeArtifact(t, dir, "unrelated.pid", "333")

	got, err := FindMarker(dir, "kernfs*.pid", 222)
	if err != nil {
		t.Fatalf("FindMarker() error: %v", err)
	}
	if got != own {
		t.Errorf("FindMarker() = %q, want %q", got, own)
	}

	got, err = FindMarker(dir, "kernfs*.pid", 333)
	if err != nil {
		t.Fatalf("FindMarker() error: %v", err)
	}
	if got != "" {
		t.Errorf("FindMarker() = %q for a pid only named by a non-matching file, want none", got)
	}
}

func TestFindMarker_NoMarkers(t *testing.T) {
	t.Parallel()

	got, err := FindMarker(t.TempDir(), "kernfs*.pid", 42)
	if err != nil {
		t.Fatalf("FindMarker() error: %v", err)
	}
	if got != "" {
		t.Errorf("FindMarker() = %q, want none", got)
	}
}
