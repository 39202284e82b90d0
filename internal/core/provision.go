package core

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/giantswarm/kernfsenv/internal/metrics"
	"github.com/giantswarm/kernfsenv/internal/process"
)

// Provision reformats the storage devices with mkfs and removes the
// persistent index pool. It is slow and must not run while the service is
// up. Canceling ctx kills the mkfs process group.
func (s *Service) Provision(ctx context.Context) (retErr error) {
	start := time.Now()
	defer func() { s.cfg.Metrics.Observe(metrics.OpProvision, start, retErr) }()

	if s.proc.IsRunning() {
		return fmt.Errorf("provision: %w", ErrAlreadyStarted)
	}

	s.log.Info("provisioning kernfs storage", "numa_node", s.cfg.NUMANode, "dir", s.cfg.ServiceDir())

	cmd := s.cfg.mkfsCommand(ctx)
	cmd.Env = s.cfg.Env
	if err := process.Run(cmd, s.cfg.ServiceDir(), s.output(), "mkfs"); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w: %w", ErrProvisionFailed, ctxErr, err)
		}
		return fmt.Errorf("%w: %w", ErrProvisionFailed, err)
	}

	if err := os.RemoveAll(s.cfg.IndexPoolPath); err != nil {
		return fmt.Errorf("%w: remove index pool %s: %w", ErrProvisionFailed, s.cfg.IndexPoolPath, err)
	}

	s.log.Info("kernfs storage provisioned", "elapsed", time.Since(start))
	return nil
}
