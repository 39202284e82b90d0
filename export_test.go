package kernfsenv

import "time"

// ConfigSnapshot holds a copy of serviceConfig fields for test assertions.
// Exported only via export_test.go so that the _test package can verify
// option closures actually mutate the config without accessing internals.
type ConfigSnapshot struct {
	Env              []string
	EnvSet           bool
	NUMANode         int
	CPU              int
	Placement        bool
	GatherStats      bool
	Verbose          bool
	LogDir           string
	ArtifactDir      string
	MarkerPattern    string
	StatsPattern     string
	ArchiveDir       string
	IndexPoolPath    string
	RunScript        string
	MkfsScript       string
	ServiceBinary    string
	StartTimeout     time.Duration
	StopTimeout      time.Duration
	PollInterval     time.Duration
	KillOnTimeout    bool
	ResetStatsSignal bool
	HasRegisterer    bool
	HistoryPath      string
}

// ApplyOptionsForTesting creates a default serviceConfig, applies the given
// options, and returns a ConfigSnapshot of the result.
func ApplyOptionsForTesting(opts ...Option) ConfigSnapshot {
	cfg := defaultServiceConfig("/repo")
	for _, opt := range opts {
		opt(&cfg)
	}

	return ConfigSnapshot{
		Env:              cfg.Env,
		EnvSet:           cfg.envSet,
		NUMANode:         cfg.NUMANode,
		CPU:              cfg.CPU,
		Placement:        cfg.Placement,
		GatherStats:      cfg.GatherStats,
		Verbose:          cfg.Verbose,
		LogDir:           cfg.LogDir,
		ArtifactDir:      cfg.ArtifactDir,
		MarkerPattern:    cfg.MarkerPattern,
		StatsPattern:     cfg.StatsPattern,
		ArchiveDir:       cfg.ArchiveDir,
		IndexPoolPath:    cfg.IndexPoolPath,
		RunScript:        cfg.RunScript,
		MkfsScript:       cfg.MkfsScript,
		ServiceBinary:    cfg.ServiceBinary,
		StartTimeout:     cfg.StartTimeout,
		StopTimeout:      cfg.StopTimeout,
		PollInterval:     cfg.PollInterval,
		KillOnTimeout:    cfg.KillOnTimeout,
		ResetStatsSignal: cfg.ResetStatsSignal,
		HasRegisterer:    cfg.registerer != nil,
		HistoryPath:      cfg.historyPath,
	}
}
