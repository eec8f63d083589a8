package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nvarshi2004/job-auto-apply/internal/adapter"
	"github.com/nvarshi2004/job-auto-apply/internal/clock"
	"github.com/nvarshi2004/job-auto-apply/internal/config"
	"github.com/nvarshi2004/job-auto-apply/internal/dedup"
	"github.com/nvarshi2004/job-auto-apply/internal/lifecycle"
	"github.com/nvarshi2004/job-auto-apply/internal/model"
	"github.com/nvarshi2004/job-auto-apply/internal/notifier"
	"github.com/nvarshi2004/job-auto-apply/internal/ratelimit"
	"github.com/nvarshi2004/job-auto-apply/internal/retry"
	"github.com/nvarshi2004/job-auto-apply/internal/scheduler"
	"github.com/nvarshi2004/job-auto-apply/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobapply",
	Short: "Job ingestion and application tracker",
	Long:  "Jobapply scrapes job boards, deduplicates listings across sources, ranks them against your profile and tracks every application through its lifecycle.",
	// Default to `start` so that `jobapply` with no args runs the daemon.
	// This keeps systemd unit files that invoke the binary directly working.
	RunE: runStart,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBAPPLY_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBAPPLY_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBAPPLY_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlack(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLog(logger)
	}
}

func createAdapter(src config.SourceConfig, httpClient *http.Client, logger *slog.Logger) (model.SourceAdapter, bool) {
	switch src.Kind {
	case "greenhouse":
		return adapter.NewGreenhouse(src.BoardToken, src.Company, httpClient), true
	case "lever":
		return adapter.NewLever(src.BoardToken, src.Company, httpClient), true
	case "html":
		sel := adapter.Selectors{
			Job:         src.Selectors.Job,
			Title:       src.Selectors.Title,
			Location:    src.Selectors.Location,
			Link:        src.Selectors.Link,
			Description: src.Selectors.Description,
		}
		return adapter.NewHTMLBoard(src.Name, src.Company, src.URL, sel, httpClient), true
	default:
		logger.Warn("unsupported source kind, skipping", "source", src.Name, "kind", src.Kind)
		return nil, false
	}
}

func buildAdapters(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) []model.SourceAdapter {
	// All sources share one limiter so the per-source minimum gap holds
	// even when a board appears under several configs.
	limiter := ratelimit.NewSourceLimiter(cfg.RateLimit.MinDelay)

	var adapters []model.SourceAdapter
	for _, src := range cfg.Sources {
		if !src.Enabled {
			continue
		}
		ad, ok := createAdapter(src, httpClient, logger)
		if !ok {
			continue
		}
		var wrapped model.SourceAdapter = retry.New(ad, cfg.AdapterRetryCount, cfg.AdapterBackoffBase, logger)
		wrapped = ratelimit.New(wrapped, limiter)
		adapters = append(adapters, wrapped)
		logger.Info("registered source", "name", ad.Name(), "kind", src.Kind)
	}
	return adapters
}

// app bundles the long-lived pieces every command needs. Close the
// store when done.
type app struct {
	cfg     *config.Config
	store   *store.Store
	engine  *dedup.Engine
	manager *lifecycle.Manager
	coord   *scheduler.Coordinator
	clock   clock.Clock
	logger  *slog.Logger
}

func openApp(logger *slog.Logger) (*app, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	// Profiles from the config file win over whatever is stored, so
	// editing the YAML is all it takes to retune matching.
	ctx := context.Background()
	for _, p := range cfg.Profiles {
		if err := st.UpsertProfile(ctx, p.Profile()); err != nil {
			st.Close()
			return nil, err
		}
	}

	clk := clock.System()
	httpClient := &http.Client{Timeout: 30 * time.Second}

	engine := dedup.NewEngine(st, clk, logger)
	manager := lifecycle.NewManager(st, clk, cfg.FollowUpInterval, logger)
	coord := scheduler.NewCoordinator(
		buildAdapters(cfg, httpClient, logger),
		engine,
		manager,
		st,
		setupNotifier(cfg, httpClient, logger),
		clk,
		scheduler.Options{
			StalenessWindow: cfg.StalenessWindow,
			MatchThreshold:  cfg.MatchThreshold,
			BlockedBackoff:  cfg.AdapterBackoffBase,
		},
		logger,
	)

	return &app{
		cfg:     cfg,
		store:   st,
		engine:  engine,
		manager: manager,
		coord:   coord,
		clock:   clk,
		logger:  logger,
	}, nil
}
