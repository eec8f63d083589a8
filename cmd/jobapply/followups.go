package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var followupsNotify bool

var followupsCmd = &cobra.Command{
	Use:   "followups",
	Short: "List applications whose follow-up is due",
	Long:  "Prints every application with a follow-up due at or before now. With --notify, also sends them through the configured notifier.",
	RunE:  runFollowups,
}

func init() {
	followupsCmd.Flags().BoolVar(&followupsNotify, "notify", false, "send due follow-ups through the configured notifier")
	rootCmd.AddCommand(followupsCmd)
}

func runFollowups(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	a, err := openApp(logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.store.Close()

	ctx := context.Background()

	if followupsNotify {
		if err := a.coord.PollFollowUps(ctx); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return nil
	}

	due, err := a.manager.DueFollowUps(ctx, a.clock.Now())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if len(due) == 0 {
		fmt.Println("Nothing due.")
		return nil
	}

	fmt.Printf("%-15s %-36s %-10s %s\n", "User", "Job ID", "State", "Due")
	fmt.Println(strings.Repeat("─", 80))
	for _, app := range due {
		fmt.Printf("%-15s %-36s %-10s %s\n",
			app.UserID, app.JobID, app.State,
			app.FollowUpDue.Format("2006-01-02"))
	}
	return nil
}
