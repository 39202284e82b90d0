package kernfsenv

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/giantswarm/kernfsenv/internal/artifact"
	"github.com/giantswarm/kernfsenv/internal/core"
	"github.com/giantswarm/kernfsenv/internal/fileutil"
	"github.com/giantswarm/kernfsenv/internal/metrics"
	"github.com/giantswarm/kernfsenv/internal/runlog"
)

// Compile-time interface satisfaction check.
var _ Service = (*serviceWrapper)(nil)

// serviceWrapper wraps core.Service to implement the Service interface.
//
// The core.Service is stored as a named (unexported) field rather than
// embedded so that callers cannot reach internal methods through a type
// assertion.
type serviceWrapper struct {
	svc     *core.Service
	history *runlog.Store
	metrics *metrics.Recorder
}

// Provision wraps core.Service.Provision.
func (w *serviceWrapper) Provision(ctx context.Context) error {
	return w.svc.Provision(ctx)
}

// Start wraps core.Service.Start.
func (w *serviceWrapper) Start(ctx context.Context) error {
	return w.svc.Start(ctx)
}

// Stop wraps core.Service.Stop, converting the record to Stats.
func (w *serviceWrapper) Stop(ignoreAlreadyDead bool) (Stats, error) {
	rec, err := w.svc.Stop(ignoreAlreadyDead)
	if rec == nil {
		return nil, err
	}
	return Stats(rec), err
}

// IsRunning wraps core.Service.IsRunning.
func (w *serviceWrapper) IsRunning() bool {
	return w.svc.IsRunning()
}

// PID wraps core.Service.PID.
func (w *serviceWrapper) PID() int {
	return w.svc.PID()
}

// RunID wraps core.Service.RunID.
func (w *serviceWrapper) RunID() string {
	return w.svc.RunID()
}

// Close tears the service down, closes the run history, and removes the
// service's collectors from the metrics registerer.
func (w *serviceWrapper) Close() error {
	err := w.svc.Close()
	if errors.Is(err, ErrStillRunning) {
		// The history row stays open; keep the store for a retry.
		return err
	}
	if w.history != nil {
		if closeErr := w.history.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		w.history = nil
	}
	w.metrics.Unregister()
	w.metrics = nil
	return err
}

// defaultServiceConfig returns a serviceConfig populated with all default
// values. Both NewService and test helpers use this to avoid duplicating the
// default field assignments.
func defaultServiceConfig(rootPath string) serviceConfig {
	return serviceConfig{Config: core.Config{
		RootPath:      rootPath,
		NUMANode:      DefaultNUMANode,
		CPU:           DefaultCPU,
		Placement:     true,
		ArtifactDir:   DefaultArtifactDir,
		MarkerPattern: DefaultMarkerPattern,
		StatsPattern:  DefaultStatsPattern,
		IndexPoolPath: DefaultIndexPoolPath,
		RunScript:     DefaultRunScript,
		MkfsScript:    DefaultMkfsScript,
		ServiceBinary: DefaultServiceBinary,
		StartTimeout:  DefaultStartTimeout,
		StopTimeout:   DefaultStopTimeout,
		PollInterval:  DefaultPollInterval,
	}}
}

// NewService returns a Service for the repository at rootPath. It performs no
// process launches; the directory <rootPath>/kernfs/tests must exist or
// NewService returns ErrServiceDirNotFound.
//
// Panics if any option receives an invalid value. See individual With*
// functions for constraints.
//
//nolint:ireturn // Returns Service interface by design for testability (mockable).
func NewService(rootPath string, opts ...Option) (Service, error) {
	cfg := defaultServiceConfig(rootPath)
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.envSet {
		cfg.Env = os.Environ()
	}

	// Metrics are registered last so that a failed construction leaves the
	// caller's registry untouched.
	var rec *metrics.Recorder
	if cfg.registerer != nil {
		var err error
		if rec, err = metrics.New(nil); err != nil {
			return nil, err
		}
		cfg.Metrics = rec
	}

	// Check the config before opening the history so a bad root does not
	// leave a database behind.
	coreCfg := cfg.toCoreConfig()
	if err := coreCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kernfs config: %w", err)
	}
	if !fileutil.IsDir(coreCfg.ServiceDir()) {
		return nil, fmt.Errorf("%s: %w", coreCfg.ServiceDir(), ErrServiceDirNotFound)
	}

	w := &serviceWrapper{}
	if cfg.historyPath != "" {
		store, err := runlog.Open(context.Background(), cfg.historyPath)
		if err != nil {
			return nil, err
		}
		coreCfg.History = store
		w.history = store
	}

	svc, err := core.New(coreCfg)
	if err == nil && rec != nil {
		err = rec.Register(cfg.registerer)
	}
	if err != nil {
		if w.history != nil {
			_ = w.history.Close()
		}
		return nil, err
	}
	w.svc = svc
	w.metrics = rec
	return w, nil
}

// CollectStats returns the last record of the last file, in path order, in
// dir matching pattern. It returns ErrMissingArtifact when no file matches or
// none holds a record.
func CollectStats(ctx context.Context, dir, pattern string) (Stats, error) {
	rec, err := artifact.CollectStats(ctx, dir, pattern)
	if err != nil {
		return nil, err
	}
	return Stats(rec), nil
}
