package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvarshi2004/job-auto-apply/internal/model"
	"github.com/nvarshi2004/job-auto-apply/internal/review"
)

var reviewUser string

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Browse candidates interactively (TUI)",
	Long:  "Opens a terminal UI over the user's ranked candidates; applications can be queued straight from the list.",
	RunE:  runReview,
}

func init() {
	reviewCmd.Flags().StringVarP(&reviewUser, "user", "u", "", "user whose candidates to review (required)")
	reviewCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	// Review runs a TUI — any log output before the alt-screen starts
	// corrupts the display, so everything logs to io.Discard.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a, err := openApp(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	defer a.store.Close()

	ctx := context.Background()
	candidates, err := rankForUser(ctx, a, reviewUser)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	queue := func(jobID string) (model.State, error) {
		app, err := a.manager.CreateOrAdvance(ctx, reviewUser, jobID, reviewUser)
		if err != nil {
			return "", err
		}
		return app.State, nil
	}

	if err := review.Run(reviewUser, candidates, queue); err != nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		os.Exit(1)
	}
	return nil
}
