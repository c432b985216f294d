package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/workbench-dev/workbench/pkg/api"
	"github.com/workbench-dev/workbench/pkg/cleanup"
	"github.com/workbench-dev/workbench/pkg/cluster"
	"github.com/workbench-dev/workbench/pkg/config"
	"github.com/workbench-dev/workbench/pkg/creation"
	"github.com/workbench-dev/workbench/pkg/expiry"
	"github.com/workbench-dev/workbench/pkg/log"
	"github.com/workbench-dev/workbench/pkg/metrics"
	"github.com/workbench-dev/workbench/pkg/reconciler"
	"github.com/workbench-dev/workbench/pkg/scheduler"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "workbenchd",
	Short: "Workbench - background reconciler for ephemeral dev workspaces",
	Long: `Workbenchd is the background worker of the Workbench platform. It
continuously reconciles the cluster's workspace resources against the
configured policy: enforcing start/stop schedules, evicting idle
workspaces, flagging stuck creations and cleaning up orphaned resources.

It runs alongside the dashboard but never talks to it; the cluster
objects are the only shared state.`,
	Version: Version,
}

func init() {
	// Set version template
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Workbench version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the reconciliation worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if flag := cmd.Flags().Lookup("namespace"); flag.Changed {
			cfg.Namespace = flag.Value.String()
		}
		if flag := cmd.Flags().Lookup("kubeconfig"); flag.Changed {
			cfg.Kubeconfig = flag.Value.String()
		}
		if flag := cmd.Flags().Lookup("listen-addr"); flag.Changed {
			cfg.ListenAddr = flag.Value.String()
		}

		log.Init(log.Config{
			Level:      log.Level(cfg.LogLevel),
			JSONOutput: cfg.LogJSON,
		})
		logger := log.WithComponent("main")

		clusterClient, err := cluster.New(cfg.Kubeconfig, cfg.Namespace)
		if err != nil {
			return fmt.Errorf("connecting to cluster: %v", err)
		}
		logger.Info().Str("namespace", cfg.Namespace).Msg("connected to cluster")

		// Start the reconciliation loops
		runner := reconciler.NewRunner(
			scheduler.New(clusterClient, cfg.Intervals.Schedule),
			expiry.New(clusterClient, cfg.Intervals.Expiry),
			creation.New(clusterClient, cfg.Intervals.Creation),
			cleanup.New(clusterClient, cfg.Intervals.Cleanup),
		)
		runner.Start()
		logger.Info().Msg("reconciliation loops started")

		// Start the workspace-state metrics collector
		collector := metrics.NewCollector(clusterClient)
		collector.Start()

		// Start the health/metrics server in the background
		healthServer := api.NewHealthServer(clusterClient, Version)
		errCh := make(chan error, 1)
		go func() {
			if err := healthServer.Start(cfg.ListenAddr); err != nil {
				errCh <- fmt.Errorf("health server error: %v", err)
			}
		}()
		logger.Info().Str("addr", cfg.ListenAddr).Msg("health and metrics server listening")

		// Wait for interrupt signal or server error
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			logger.Info().Msg("shutting down")
		case err := <-errCh:
			logger.Error().Err(err).Msg("shutting down")
		}

		// Shutdown: stop scheduling ticks, let in-flight ticks finish
		runner.Stop()
		collector.Stop()
		healthServer.Stop()

		logger.Info().Msg("shutdown complete")
		return nil
	},
}

func init() {
	runCmd.Flags().String("config", "", "Path to the worker config file")
	runCmd.Flags().String("namespace", "", "Cluster namespace holding workspace resources")
	runCmd.Flags().String("kubeconfig", "", "Path to kubeconfig (empty for in-cluster)")
	runCmd.Flags().String("listen-addr", "", "Health/metrics listen address")
}
