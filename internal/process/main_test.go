package process

import (
	"testing"

	"go.uber.org/goleak"
)

// Every started process is reaped by the end of its test, so no wait
// goroutine may survive the package.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
