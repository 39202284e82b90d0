package kernfsenv

import (
	"github.com/giantswarm/kernfsenv/internal/core"
	"github.com/prometheus/client_golang/prometheus"
)

// serviceConfig holds configuration for a Service. This unexported type wraps
// core.Config via embedding, keeping internal/core types out of the public API
// signature while avoiding field-by-field duplication.
type serviceConfig struct {
	core.Config

	envSet      bool
	registerer  prometheus.Registerer
	historyPath string
}

// toCoreConfig returns the embedded core.Config.
func (c serviceConfig) toCoreConfig() core.Config {
	return c.Config
}
