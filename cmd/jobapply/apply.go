package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var applyUser string

var applyCmd = &cobra.Command{
	Use:   "apply <job-id>",
	Short: "Queue or advance an application for a job",
	Long:  "Creates the application at QUEUED if none exists, otherwise advances it one forward step (QUEUED→APPLIED, APPLIED→PENDING).",
	Args:  cobra.ExactArgs(1),
	RunE:  runApply,
}

func init() {
	applyCmd.Flags().StringVarP(&applyUser, "user", "u", "", "user applying (required)")
	applyCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	a, err := openApp(logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.store.Close()

	ctx := context.Background()
	jobID := args[0]

	job, err := a.store.GetJob(ctx, jobID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load job: %v\n", err)
		os.Exit(1)
	}
	if job == nil {
		fmt.Fprintf(os.Stderr, "no job with id %s\n", jobID)
		os.Exit(1)
	}

	app, err := a.manager.CreateOrAdvance(ctx, applyUser, jobID, applyUser)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("%s at %s → %s", job.Title, job.Company, app.State)
	if app.FollowUpDue != nil {
		fmt.Printf(" (follow up by %s)", app.FollowUpDue.Format("2006-01-02"))
	}
	fmt.Println()
	return nil
}
