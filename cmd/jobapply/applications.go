package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvarshi2004/job-auto-apply/internal/lifecycle"
	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

var (
	applicationsUser  string
	applicationsState string
)

var applicationsCmd = &cobra.Command{
	Use:   "applications",
	Short: "List a user's applications",
	Long:  "Prints every application for the user, optionally filtered to one state.",
	RunE:  runApplications,
}

func init() {
	applicationsCmd.Flags().StringVarP(&applicationsUser, "user", "u", "", "user whose applications to list (required)")
	applicationsCmd.Flags().StringVarP(&applicationsState, "state", "s", "", "only show applications in this state")
	applicationsCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(applicationsCmd)
}

func runApplications(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	a, err := openApp(logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.store.Close()

	var state model.State
	if applicationsState != "" {
		state, err = lifecycle.ParseState(applicationsState)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	ctx := context.Background()
	apps, err := a.store.ListApplications(ctx, applicationsUser, state)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list applications: %v\n", err)
		os.Exit(1)
	}

	if len(apps) == 0 {
		fmt.Println("No applications found.")
		return nil
	}

	fmt.Printf("%-36s %-10s %-25s %-35s %-12s %s\n", "Job ID", "State", "Company", "Title", "Follow-up", "Updated")
	fmt.Println(strings.Repeat("─", 135))
	for _, app := range apps {
		company, title := "?", "?"
		if job, err := a.store.GetJob(ctx, app.JobID); err == nil && job != nil {
			company, title = job.Company, job.Title
		}
		followUp := "-"
		if app.FollowUpDue != nil {
			followUp = app.FollowUpDue.Format("2006-01-02")
		}
		fmt.Printf("%-36s %-10s %-25s %-35s %-12s %s\n",
			app.JobID, app.State, company, title, followUp,
			app.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
