// Command kernfsenv provisions and supervises a KernFS service around a
// benchmark workload.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/giantswarm/kernfsenv"
	"github.com/spf13/cobra"
)

var (
	config     Config
	configPath string // config file actually loaded, if any

	flagConfigFilePath string // value of --config flag
	flagVerbose        bool   // value of --verbose flag
	flagRoot           string // value of --root flag
)

func main() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFilePath, "config", "", "Config file to load - default is kernfsenv.yaml in the current directory")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "verbose logging and service output")
	rootCmd.PersistentFlags().StringVar(&flagRoot, "root", "", "repository root holding kernfs/tests (overrides the config file)")

	// never print messages
	rootCmd.SilenceErrors = true

	// parse the config, setup logging
	rootCmd.PersistentPreRunE = initKernfsenv

	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "number of runs to show, 0 for all")

	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("kernfsenv failed", "err", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "kernfsenv",
	Short:        "Supervise a KernFS service for benchmark runs",
	SilenceUsage: true,
}

func initKernfsenv(_ *cobra.Command, _ []string) error {
	if envConfig, ok := os.LookupEnv("KERNFSENVCONFIG"); ok {
		configPath = envConfig
	} else if flagConfigFilePath != "" {
		configPath = flagConfigFilePath
	} else if path := "kernfsenv.yaml"; exists(path) {
		configPath = path
	}

	if configPath == "" {
		config = DefaultConfig()
	} else {
		f, err := os.Open(configPath)
		if err != nil {
			return fmt.Errorf("opening config file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		config, err = LoadConfig(f)
		if err != nil {
			return fmt.Errorf("parsing config %s: %w", configPath, err)
		}
	}

	// flags have a precedence over config file
	if flagVerbose {
		config.Verbose = true
	}
	if flagRoot != "" {
		config.Root = flagRoot
	}
	root, err := filepath.Abs(config.Root)
	if err != nil {
		return fmt.Errorf("resolving root %s: %w", config.Root, err)
	}
	config.Root = root

	level := slog.LevelInfo
	if config.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	kernfsenv.SetLogger(logger)
	return nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
