package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"runtime/debug"
	"text/tabwriter"
	"time"

	"github.com/giantswarm/kernfsenv"
	"github.com/giantswarm/kernfsenv/internal/metrics"
	"github.com/giantswarm/kernfsenv/internal/runlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var flagHistoryLimit int

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "reformat the storage devices and drop the index pool",
	Args:  cobra.NoArgs,
	RunE:  doProvision,
}

var runCmd = &cobra.Command{
	Use:   "run -- workload [args...]",
	Short: "start the service, run a workload against it, stop it and print the stats",
	Args:  cobra.MinimumNArgs(1),
	RunE:  doRun,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "list recorded runs",
	Args:  cobra.NoArgs,
	RunE:  doHistory,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "version provide version of kernfsenv",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			fmt.Println("kernfsenv: version info not available")
			return
		}

		if configPath != "" {
			fmt.Printf("config:    %s\n", configPath)
		}
		fmt.Printf("kernfsenv: %s\n", info.Main.Version)
		fmt.Printf("go:        %s\n", info.GoVersion)
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				fmt.Printf("commit:    %s\n", s.Value)
			case "vcs.time":
				fmt.Printf("date:      %s\n", s.Value)
			}
		}
	},
}

// newService builds a Service from the loaded config. reg may be nil.
//
//nolint:ireturn // Returns the library's Service interface.
func newService(reg prometheus.Registerer) (kernfsenv.Service, error) {
	opts := config.Options()
	if reg != nil {
		opts = append(opts, kernfsenv.WithMetrics(reg))
	}
	return kernfsenv.NewService(config.Root, opts...)
}

func doProvision(cmd *cobra.Command, _ []string) (retErr error) {
	svc, err := newService(nil)
	if err != nil {
		return err
	}
	defer func() { retErr = errors.Join(retErr, svc.Close()) }()

	start := time.Now()
	if err := svc.Provision(cmd.Context()); err != nil {
		return err
	}
	slog.Info("provisioned", "root", config.Root, "elapsed", time.Since(start))
	return nil
}

func doRun(cmd *cobra.Command, args []string) (retErr error) {
	ctx := cmd.Context()

	var reg *prometheus.Registry
	if config.MetricsFile != "" {
		reg = prometheus.NewRegistry()
	}
	svc, err := newService(registererOrNil(reg))
	if err != nil {
		return err
	}
	defer func() { retErr = errors.Join(retErr, svc.Close()) }()
	defer func() {
		if reg == nil {
			return
		}
		if err := metrics.WriteTextfile(config.MetricsFile, reg); err != nil {
			retErr = errors.Join(retErr, err)
		}
	}()

	if err := svc.Start(ctx); err != nil {
		return err
	}
	slog.Info("service ready", "pid", svc.PID(), "run_id", svc.RunID())

	workErr := runWorkload(ctx, svc.RunID(), args)

	// A workload that killed the daemon is reported through workErr.
	stats, stopErr := svc.Stop(true)
	if err := errors.Join(workErr, stopErr); err != nil {
		return err
	}
	return printStats(os.Stdout, stats)
}

// runWorkload runs args to completion with the run ID in its environment.
func runWorkload(ctx context.Context, runID string, args []string) error {
	c := exec.CommandContext(ctx, args[0], args[1:]...) //nolint:gosec // G204: the workload is the operator's command line
	c.Env = append(os.Environ(), "KERNFS_RUN_ID="+runID)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("workload %s: %w", args[0], err)
	}
	return nil
}

// registererOrNil keeps a nil *Registry from becoming a non-nil interface.
//
//nolint:ireturn // Returns the prometheus interface.
func registererOrNil(reg *prometheus.Registry) prometheus.Registerer {
	if reg == nil {
		return nil
	}
	return reg
}

func printStats(w io.Writer, stats kernfsenv.Stats) error {
	if stats == nil {
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(stats); err != nil {
		return fmt.Errorf("writing stats: %w", err)
	}
	return nil
}

func doHistory(cmd *cobra.Command, _ []string) (retErr error) {
	if config.History == "" {
		return errors.New("no run history configured: set history in the config file")
	}
	store, err := runlog.Open(cmd.Context(), config.History)
	if err != nil {
		return err
	}
	defer func() { retErr = errors.Join(retErr, store.Close()) }()

	runs, err := store.List(cmd.Context(), flagHistoryLimit)
	if err != nil {
		return err
	}
	return printHistory(os.Stdout, runs)
}

func printHistory(w io.Writer, runs []runlog.Run) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tPID\tNODE\tSTARTED\tDURATION\tOUTCOME\tERROR")
	for _, r := range runs {
		duration := "-"
		if !r.StoppedAt.IsZero() {
			duration = r.StoppedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			r.ID, r.PID, r.NUMANode, r.StartedAt.Format(time.RFC3339), duration, r.Outcome, r.Error)
	}
	return tw.Flush()
}
