package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nvarshi2004/job-auto-apply/internal/scheduler"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scrape daemon",
	Long:  "Start the scheduler daemon: scrape cycles plus the follow-up poll; blocks until SIGINT/SIGTERM.",
	RunE:  runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	a, err := openApp(logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.store.Close()

	logger.Info("config loaded",
		"scrape_interval", a.cfg.ScrapeInterval.String(),
		"follow_up_interval", a.cfg.FollowUpInterval.String(),
		"staleness_window", a.cfg.StalenessWindow.String(),
		"sources", len(a.cfg.Sources),
		"profiles", len(a.cfg.Profiles),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	daemon := scheduler.NewDaemon(a.coord, a.cfg.ScrapeInterval, a.cfg.FollowUpPoll, logger)
	if err := daemon.Run(ctx); err != nil {
		logger.Error("daemon error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
