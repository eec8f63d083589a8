package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nvarshi2004/job-auto-apply/internal/match"
	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

var (
	candidatesUser  string
	candidatesLimit int
)

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Rank active jobs for a user",
	Long:  "Scores every active job against the user's profile and prints the ones over their threshold, best first.",
	RunE:  runCandidates,
}

func init() {
	candidatesCmd.Flags().StringVarP(&candidatesUser, "user", "u", "", "user whose profile to rank against (required)")
	candidatesCmd.Flags().IntVarP(&candidatesLimit, "limit", "n", 20, "maximum candidates to print")
	candidatesCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(candidatesCmd)
}

func runCandidates(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	a, err := openApp(logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer a.store.Close()

	ctx := context.Background()
	candidates, err := rankForUser(ctx, a, candidatesUser)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if len(candidates) == 0 {
		fmt.Println("No candidates over the threshold.")
		return nil
	}

	fmt.Printf("%-36s %-6s %-25s %-35s %s\n", "Job ID", "Score", "Company", "Title", "Matched")
	fmt.Println(strings.Repeat("─", 120))
	for i, c := range candidates {
		if i >= candidatesLimit {
			break
		}
		fmt.Printf("%-36s %-6.2f %-25s %-35s %s\n",
			c.Job.ID, c.Score.Score, c.Job.Company, c.Job.Title,
			strings.Join(c.Score.MatchedKeywords, ", "))
	}
	return nil
}

// rankForUser loads the profile, ranks all active jobs against it and
// drops everything under the effective threshold.
func rankForUser(ctx context.Context, a *app, user string) ([]model.Candidate, error) {
	profile, err := a.store.GetProfile(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("load profile %q: %w", user, err)
	}

	jobs, err := a.store.ListActiveJobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active jobs: %w", err)
	}

	threshold := profile.MinScore
	if threshold <= 0 {
		threshold = a.cfg.MatchThreshold
	}

	ranked := match.Rank(*profile, jobs)
	var over []model.Candidate
	for _, c := range ranked {
		if c.Score.Score >= threshold {
			over = append(over, c)
		}
	}
	return over, nil
}
