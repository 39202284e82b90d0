package core

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	validConfig := func() Config {
		return Config{
			RootPath:      "/src/kernfs-repo",
			ArtifactDir:   "/tmp",
			MarkerPattern: "kernfs*.pid",
			StatsPattern:  "kernfs_prof.*",
			IndexPoolPath: "/mnt/pmem/clevel.pool",
			RunScript:     "run.sh",
			MkfsScript:    "mkfs.sh",
			ServiceBinary: "kernfs",
			StartTimeout:  5 * time.Minute,
			StopTimeout:   10 * time.Second,
			PollInterval:  20 * time.Millisecond,
		}
	}

	t.Run("valid config returns nil", func(t *testing.T) {
		cfg := validConfig()
		if err := cfg.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	tests := map[string]struct {
		modify       func(c *Config)
		wantContains string
	}{
		"empty root path": {
			modify:       func(c *Config) { c.RootPath = "" },
			wantContains: "root path",
		},
		"negative NUMA node": {
			modify:       func(c *Config) { c.NUMANode = -1 },
			wantContains: "NUMA node",
		},
		"negative CPU": {
			modify:       func(c *Config) { c.CPU = -1 },
			wantContains: "CPU",
		},
		"empty artifact dir": {
			modify:       func(c *Config) { c.ArtifactDir = "" },
			wantContains: "artifact directory",
		},
		"empty marker pattern": {
			modify:       func(c *Config) { c.MarkerPattern = "" },
			wantContains: "marker pattern",
		},
		"invalid stats pattern": {
			modify:       func(c *Config) { c.StatsPattern = "kernfs_prof.[" },
			wantContains: "stats pattern",
		},
		"empty index pool path": {
			modify:       func(c *Config) { c.IndexPoolPath = "" },
			wantContains: "index pool path",
		},
		"empty run script": {
			modify:       func(c *Config) { c.RunScript = "" },
			wantContains: "run script",
		},
		"empty mkfs script": {
			modify:       func(c *Config) { c.MkfsScript = "" },
			wantContains: "mkfs script",
		},
		"empty service binary": {
			modify:       func(c *Config) { c.ServiceBinary = "" },
			wantContains: "service binary",
		},
		"zero start timeout": {
			modify:       func(c *Config) { c.StartTimeout = 0 },
			wantContains: "start timeout",
		},
		"negative stop timeout": {
			modify:       func(c *Config) { c.StopTimeout = -time.Second },
			wantContains: "stop timeout",
		},
		"zero poll interval": {
			modify:       func(c *Config) { c.PollInterval = 0 },
			wantContains: "poll interval",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			tc.modify(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantContains) {
				t.Errorf("error %q does not contain %q", err.Error(), tc.wantContains)
			}
		})
	}

	t.Run("reports every violation", func(t *testing.T) {
		cfg := validConfig()
		cfg.RootPath = ""
		cfg.StopTimeout = 0
		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		for _, want := range []string{"root path", "stop timeout"} {
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error %q does not contain %q", err.Error(), want)
			}
		}
	})
}

func TestConfig_ServiceDir(t *testing.T) {
	cfg := Config{RootPath: "/src/repo"}
	if got, want := cfg.ServiceDir(), filepath.Join("/src/repo", "kernfs", "tests"); got != want {
		t.Errorf("ServiceDir() = %q, want %q", got, want)
	}
}

func TestConfig_RunScoped(t *testing.T) {
	tests := map[string]struct {
		marker, stats string
		want          bool
	}{
		"fixed patterns":  {marker: "kernfs*.pid", stats: "kernfs_prof.*", want: false},
		"marker only":     {marker: "kernfs-{run}.pid", stats: "kernfs_prof.*", want: false},
		"both run-scoped": {marker: "kernfs-{run}.pid", stats: "kernfs_prof.{run}.*", want: true},
		"stats only":      {marker: "kernfs*.pid", stats: "{run}/kernfs_prof.*", want: false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Config{MarkerPattern: tc.marker, StatsPattern: tc.stats}
			if got := cfg.runScoped(); got != tc.want {
				t.Errorf("runScoped() = %v, want %v", got, tc.want)
			}
		})
	}
}
