package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `
sources:
  - name: acme
    kind: greenhouse
    company: Acme Corp
    board_token: acme
    enabled: true
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ScrapeInterval != 24*time.Hour {
		t.Errorf("ScrapeInterval = %v", cfg.ScrapeInterval)
	}
	if cfg.FollowUpInterval != 7*24*time.Hour {
		t.Errorf("FollowUpInterval = %v", cfg.FollowUpInterval)
	}
	if cfg.StalenessWindow != 14*24*time.Hour {
		t.Errorf("StalenessWindow = %v", cfg.StalenessWindow)
	}
	if cfg.FollowUpPoll != 15*time.Minute {
		t.Errorf("FollowUpPoll = %v", cfg.FollowUpPoll)
	}
	if cfg.MatchThreshold != 0.25 {
		t.Errorf("MatchThreshold = %v", cfg.MatchThreshold)
	}
	if cfg.AdapterRetryCount != 2 {
		t.Errorf("AdapterRetryCount = %d", cfg.AdapterRetryCount)
	}
	if cfg.AdapterBackoffBase != 5*time.Second {
		t.Errorf("AdapterBackoffBase = %v", cfg.AdapterBackoffBase)
	}
	if cfg.RateLimit.MinDelay != 2*time.Second {
		t.Errorf("RateLimit.MinDelay = %v", cfg.RateLimit.MinDelay)
	}
	if cfg.DBPath != "jobs.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
scrape_interval_hours: 6
follow_up_interval_days: 3
staleness_window_days: 30
follow_up_poll_interval: 5m
match_threshold: 0.5
adapter_retry_count: 4
adapter_backoff_base_seconds: 10
db_path: /tmp/pipeline.db
rate_limit:
  min_delay: 500ms
sources:
  - name: acme
    kind: lever
    company: Acme Corp
    board_token: acme
    enabled: true
  - name: widgets
    kind: html
    company: Widgets GmbH
    url: https://widgets.example.com/careers
    selectors:
      job: div.job
      title: h3
      location: .loc
      link: a
    enabled: true
  - name: disabled-board
    kind: greenhouse
    company: Off Corp
    enabled: false
notification:
  type: log
profiles:
  - user: amy
    keywords: [go, kubernetes]
    locations: [remote]
    min_score: 0.4
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.ScrapeInterval != 6*time.Hour {
		t.Errorf("ScrapeInterval = %v", cfg.ScrapeInterval)
	}
	if cfg.FollowUpInterval != 3*24*time.Hour {
		t.Errorf("FollowUpInterval = %v", cfg.FollowUpInterval)
	}
	if cfg.FollowUpPoll != 5*time.Minute {
		t.Errorf("FollowUpPoll = %v", cfg.FollowUpPoll)
	}
	if cfg.RateLimit.MinDelay != 500*time.Millisecond {
		t.Errorf("MinDelay = %v", cfg.RateLimit.MinDelay)
	}
	if len(cfg.Sources) != 3 {
		t.Fatalf("got %d sources", len(cfg.Sources))
	}
	if cfg.Sources[1].Selectors.Job != "div.job" {
		t.Errorf("selectors not parsed: %+v", cfg.Sources[1].Selectors)
	}
	if len(cfg.Profiles) != 1 {
		t.Fatalf("got %d profiles", len(cfg.Profiles))
	}
	p := cfg.Profiles[0].Profile()
	if p.UserID != "amy" || p.MinScore != 0.4 || len(p.Keywords) != 2 {
		t.Errorf("profile = %+v", p)
	}
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_WEBHOOK", "https://hooks.slack.com/services/T000/B000/XYZ")

	cfg, err := Load(writeConfig(t, minimalConfig+`
notification:
  type: slack
  webhook_url: ${TEST_WEBHOOK}
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Notification.WebhookURL != "https://hooks.slack.com/services/T000/B000/XYZ" {
		t.Errorf("webhook not expanded: %q", cfg.Notification.WebhookURL)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no enabled sources",
			yaml:    `sources: []`,
			wantErr: "at least one source",
		},
		{
			name: "greenhouse without board token",
			yaml: `
sources:
  - name: acme
    kind: greenhouse
    company: Acme
    enabled: true
`,
			wantErr: "board_token is required",
		},
		{
			name: "html without selectors",
			yaml: `
sources:
  - name: widgets
    kind: html
    company: Widgets
    url: https://example.com
    enabled: true
`,
			wantErr: "selectors.job and selectors.title",
		},
		{
			name: "unknown source kind",
			yaml: `
sources:
  - name: x
    kind: telepathy
    enabled: true
`,
			wantErr: "unknown kind",
		},
		{
			name: "slack without webhook",
			yaml: minimalConfig + `
notification:
  type: slack
`,
			wantErr: "webhook_url is required",
		},
		{
			name: "min_score out of range",
			yaml: minimalConfig + `
profiles:
  - user: amy
    min_score: 1.5
`,
			wantErr: "min_score must be within",
		},
		{
			name:    "threshold out of range",
			yaml:    minimalConfig + "match_threshold: 2.0\n",
			wantErr: "match_threshold must be within",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			if err == nil {
				t.Fatal("Load accepted invalid config")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load accepted a missing file")
	}
}
