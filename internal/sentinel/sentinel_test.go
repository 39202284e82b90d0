package sentinel

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Message(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  Error
		want string
	}{
		"launch timeout": {err: Error("launch timeout"), want: "launch timeout"},
		"empty":          {err: Error(""), want: ""},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := tc.err.Error(); got != tc.want {
				t.Errorf("Error() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestError_MatchesThroughWrapping(t *testing.T) {
	t.Parallel()

	const errNotRunning = Error("service is not running")

	wrapped := fmt.Errorf("stop kernfs: %w", errNotRunning)
	if !errors.Is(wrapped, errNotRunning) {
		t.Error("errors.Is should match the constant through fmt.Errorf wrapping")
	}

	joined := errors.Join(errors.New("remove stats"), wrapped)
	if !errors.Is(joined, errNotRunning) {
		t.Error("errors.Is should match the constant inside errors.Join")
	}
}

func TestError_DistinctFromErrorsNew(t *testing.T) {
	t.Parallel()

	const errMissing = Error("missing artifact")
	if errors.Is(errMissing, errors.New("missing artifact")) {
		t.Error("a constant must not match an errors.New value with the same text")
	}
	if errors.Is(errMissing, Error("other")) {
		t.Error("constants with different text must not match")
	}
}
