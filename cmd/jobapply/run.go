package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one scrape cycle and exit",
	Long:  "One-shot cycle: fetch every enabled source, dedupe, sweep stale jobs, match and notify, then exit.",
	RunE:  runOnce,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	a, err := openApp(logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.coord.RunCycle(ctx); err != nil {
		logger.Error("cycle failed", "error", err)
		os.Exit(1)
	}

	total, active, err := a.store.CountJobs(ctx)
	if err == nil {
		logger.Info("cycle complete", "jobs_total", total, "jobs_active", active)
	}
	return nil
}
