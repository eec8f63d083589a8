package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

// Config is the root configuration for the pipeline.
type Config struct {
	ScrapeInterval     time.Duration // between scrape cycles
	FollowUpInterval   time.Duration // applied → follow-up due
	StalenessWindow    time.Duration // unseen this long → inactive
	FollowUpPoll       time.Duration // between due-follow-up polls
	MatchThreshold     float64       // default minimum score to surface
	AdapterRetryCount  int           // extra attempts per adapter per cycle
	AdapterBackoffBase time.Duration // base delay for retries and blocked backoff
	DBPath             string
	RateLimit          RateLimitConfig
	Sources            []SourceConfig
	Notification       NotificationConfig
	Profiles           []ProfileConfig
}

// RateLimitConfig controls per-source rate limiting.
type RateLimitConfig struct {
	MinDelay time.Duration // minimum gap between requests to the same source
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// SelectorConfig maps fields onto an HTML board's markup.
type SelectorConfig struct {
	Job         string `yaml:"job"`
	Title       string `yaml:"title"`
	Location    string `yaml:"location"`
	Link        string `yaml:"link"`
	Description string `yaml:"description"`
}

// SourceConfig describes a single job board to scrape.
type SourceConfig struct {
	Name       string         `yaml:"name"`
	Kind       string         `yaml:"kind"` // "greenhouse", "lever" or "html"
	Company    string         `yaml:"company"`
	BoardToken string         `yaml:"board_token"` // greenhouse / lever
	URL        string         `yaml:"url"`         // html boards
	Selectors  SelectorConfig `yaml:"selectors"`   // html boards
	Enabled    bool           `yaml:"enabled"`
}

// ProfileConfig seeds a user's preference profile at startup.
type ProfileConfig struct {
	User              string   `yaml:"user"`
	Keywords          []string `yaml:"keywords"`
	Locations         []string `yaml:"locations"`
	RoleTypes         []string `yaml:"role_types"`
	ExcludedCompanies []string `yaml:"excluded_companies"`
	MinScore          float64  `yaml:"min_score"`
}

// rawConfig is used for YAML unmarshaling (snake_case fields, durations
// and day/hour counts as plain numbers).
type rawConfig struct {
	ScrapeIntervalHours       int                `yaml:"scrape_interval_hours"`
	FollowUpIntervalDays      int                `yaml:"follow_up_interval_days"`
	StalenessWindowDays       int                `yaml:"staleness_window_days"`
	FollowUpPollInterval      string             `yaml:"follow_up_poll_interval"`
	MatchThreshold            float64            `yaml:"match_threshold"`
	AdapterRetryCount         int                `yaml:"adapter_retry_count"`
	AdapterBackoffBaseSeconds int                `yaml:"adapter_backoff_base_seconds"`
	DBPath                    string             `yaml:"db_path"`
	RateLimit                 rawRateLimitConfig `yaml:"rate_limit"`
	Sources                   []SourceConfig     `yaml:"sources"`
	Notification              NotificationConfig `yaml:"notification"`
	Profiles                  []ProfileConfig    `yaml:"profiles"`
}

type rawRateLimitConfig struct {
	MinDelay string `yaml:"min_delay"`
}

// Defaults applied when a key is absent.
const (
	defaultScrapeIntervalHours       = 24
	defaultFollowUpIntervalDays      = 7
	defaultStalenessWindowDays       = 14
	defaultFollowUpPoll              = 15 * time.Minute
	defaultMatchThreshold            = 0.25
	defaultAdapterRetryCount         = 2
	defaultAdapterBackoffBaseSeconds = 5
	defaultRateLimitMinDelay         = 2 * time.Second
	defaultDBPath                    = "jobs.db"
)

// Load reads and parses the YAML config file at path, validates it, and
// returns Config. Environment variables in the file are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		ScrapeInterval:     time.Duration(withDefault(raw.ScrapeIntervalHours, defaultScrapeIntervalHours)) * time.Hour,
		FollowUpInterval:   time.Duration(withDefault(raw.FollowUpIntervalDays, defaultFollowUpIntervalDays)) * 24 * time.Hour,
		StalenessWindow:    time.Duration(withDefault(raw.StalenessWindowDays, defaultStalenessWindowDays)) * 24 * time.Hour,
		FollowUpPoll:       defaultFollowUpPoll,
		MatchThreshold:     raw.MatchThreshold,
		AdapterRetryCount:  withDefault(raw.AdapterRetryCount, defaultAdapterRetryCount),
		AdapterBackoffBase: time.Duration(withDefault(raw.AdapterBackoffBaseSeconds, defaultAdapterBackoffBaseSeconds)) * time.Second,
		DBPath:             raw.DBPath,
		RateLimit:          RateLimitConfig{MinDelay: defaultRateLimitMinDelay},
		Sources:            raw.Sources,
		Notification:       raw.Notification,
		Profiles:           raw.Profiles,
	}

	if raw.FollowUpPollInterval != "" {
		d, err := time.ParseDuration(raw.FollowUpPollInterval)
		if err != nil {
			return nil, fmt.Errorf("parse follow_up_poll_interval %q: %w", raw.FollowUpPollInterval, err)
		}
		cfg.FollowUpPoll = d
	}

	if raw.RateLimit.MinDelay != "" {
		d, err := time.ParseDuration(raw.RateLimit.MinDelay)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.min_delay %q: %w", raw.RateLimit.MinDelay, err)
		}
		cfg.RateLimit.MinDelay = d
	}

	if cfg.MatchThreshold == 0 {
		cfg.MatchThreshold = defaultMatchThreshold
	}
	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func withDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func validate(cfg *Config) error {
	if cfg.ScrapeInterval <= 0 {
		return fmt.Errorf("scrape_interval_hours must be positive, got %v", cfg.ScrapeInterval)
	}
	if cfg.MatchThreshold < 0 || cfg.MatchThreshold > 1 {
		return fmt.Errorf("match_threshold must be within [0, 1], got %v", cfg.MatchThreshold)
	}
	if cfg.AdapterRetryCount < 0 {
		return fmt.Errorf("adapter_retry_count must not be negative, got %d", cfg.AdapterRetryCount)
	}

	enabled := 0
	for i, src := range cfg.Sources {
		if !src.Enabled {
			continue
		}
		enabled++
		switch src.Kind {
		case "greenhouse", "lever":
			if src.BoardToken == "" {
				return fmt.Errorf("sources[%d] (%s): board_token is required for kind %q", i, src.Name, src.Kind)
			}
		case "html":
			if src.URL == "" {
				return fmt.Errorf("sources[%d] (%s): url is required for kind \"html\"", i, src.Name)
			}
			if src.Selectors.Job == "" || src.Selectors.Title == "" {
				return fmt.Errorf("sources[%d] (%s): selectors.job and selectors.title are required for kind \"html\"", i, src.Name)
			}
		default:
			return fmt.Errorf("sources[%d] (%s): unknown kind %q", i, src.Name, src.Kind)
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	if cfg.Notification.Type == "slack" && cfg.Notification.WebhookURL == "" {
		return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
	}

	for i, p := range cfg.Profiles {
		if p.User == "" {
			return fmt.Errorf("profiles[%d]: user is required", i)
		}
		if p.MinScore < 0 || p.MinScore > 1 {
			return fmt.Errorf("profiles[%d] (%s): min_score must be within [0, 1], got %v", i, p.User, p.MinScore)
		}
	}

	return nil
}

// Profile converts a seeded profile config into the model type.
func (p ProfileConfig) Profile() model.Profile {
	return model.Profile{
		UserID:            p.User,
		Keywords:          p.Keywords,
		Locations:         p.Locations,
		RoleTypes:         p.RoleTypes,
		ExcludedCompanies: p.ExcludedCompanies,
		MinScore:          p.MinScore,
	}
}
