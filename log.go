package kernfsenv

import (
	"log/slog"

	"github.com/giantswarm/kernfsenv/internal/core"
)

// SetLogger replaces the package-level logger used by kernfsenv. The provided
// logger should already carry any desired attributes; services add run_id and
// pid to it.
//
// If l is nil, the logger resets to slog.Default() with a "component"
// attribute, re-derived on the next use and then cached. Call SetLogger(nil)
// after slog.SetDefault() to pick up changes.
//
// SetLogger is safe to call concurrently with running services; a service
// picks up the new logger on its next Start.
func SetLogger(l *slog.Logger) {
	core.SetLogger(l)
}
