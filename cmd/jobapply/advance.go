package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvarshi2004/job-auto-apply/internal/lifecycle"
)

var (
	advanceUser  string
	advanceActor string
)

var advanceCmd = &cobra.Command{
	Use:   "advance <job-id> <state>",
	Short: "Move an application to a specific state",
	Long: `Moves an existing application to the given state, recording who did it.
States: QUEUED, APPLIED, PENDING, INTERVIEW, REJECTED, WITHDRAWN, OFFER.
WITHDRAWN is reachable from any non-terminal state; the rest follow the pipeline order.`,
	Args: cobra.ExactArgs(2),
	RunE: runAdvance,
}

func init() {
	advanceCmd.Flags().StringVarP(&advanceUser, "user", "u", "", "user whose application to advance (required)")
	advanceCmd.Flags().StringVar(&advanceActor, "actor", "", "who performed the transition (defaults to the user)")
	advanceCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(advanceCmd)
}

func runAdvance(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	a, err := openApp(logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.store.Close()

	jobID := args[0]
	target, err := lifecycle.ParseState(args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	actor := advanceActor
	if actor == "" {
		actor = advanceUser
	}

	app, err := a.manager.Advance(context.Background(), advanceUser, jobID, target, actor)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("application %s/%s → %s\n", advanceUser, jobID, app.State)
	return nil
}
