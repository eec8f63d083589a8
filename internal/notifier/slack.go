package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

// Ensure Slack implements model.Notifier.
var _ model.Notifier = (*Slack)(nil)

// Slack posts candidate and follow-up alerts to a channel via Incoming
// Webhooks.
type Slack struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSlack returns a notifier that posts to Slack via webhook.
func NewSlack(webhookURL string, httpClient *http.Client, logger *slog.Logger) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// NotifyCandidates sends each candidate as a separate Slack message.
// Returns an error only if ALL messages fail; individual failures are
// logged.
func (s *Slack) NotifyCandidates(user string, candidates []model.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}

	failures := 0
	for i, c := range candidates {
		if i > 0 {
			time.Sleep(500 * time.Millisecond)
		}

		if err := s.send(candidatePayload(user, c)); err != nil {
			s.logger.Error("slack candidate notification failed",
				"user", user,
				"company", c.Job.Company,
				"title", c.Job.Title,
				"error", err,
			)
			failures++
		}
	}

	sent := len(candidates) - failures
	if failures == len(candidates) {
		return fmt.Errorf("all %d slack notifications failed", failures)
	}
	s.logger.Info("slack candidate notifications complete", "user", user, "sent", sent, "failed", failures)
	return nil
}

// NotifyFollowUps sends one message listing every due follow-up.
func (s *Slack) NotifyFollowUps(apps []model.Application) error {
	if len(apps) == 0 {
		return nil
	}
	if err := s.send(followUpPayload(apps)); err != nil {
		return fmt.Errorf("slack follow-up notification: %w", err)
	}
	s.logger.Info("slack follow-up notification sent", "count", len(apps))
	return nil
}

// send posts the payload, retrying once on a 429.
func (s *Slack) send(payload slackPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	resp, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post to slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := resp.Header.Get("Retry-After")
		secs, _ := strconv.Atoi(retryAfter)
		if secs <= 0 {
			secs = 1
		}
		s.logger.Warn("slack rate limited, retrying", "retry_after_secs", secs)
		time.Sleep(time.Duration(secs) * time.Second)

		resp2, err := s.httpClient.Post(s.webhookURL, "application/json", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("post to slack (retry): %w", err)
		}
		defer resp2.Body.Close()

		if resp2.StatusCode != http.StatusOK {
			return fmt.Errorf("slack returned %d on retry", resp2.StatusCode)
		}
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}
	return nil
}

// Block Kit payload types.

type slackPayload struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string         `json:"type"`
	Text     *slackText     `json:"text,omitempty"`
	Fields   []slackText    `json:"fields,omitempty"`
	Elements []slackElement `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type slackElement struct {
	Type  string    `json:"type"`
	Text  slackText `json:"text"`
	URL   string    `json:"url"`
	Style string    `json:"style"`
}

func candidatePayload(user string, c model.Candidate) slackPayload {
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: "🎯 " + c.Job.Company + ": " + c.Job.Title},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*For:*\n" + user},
				{Type: "mrkdwn", Text: fmt.Sprintf("*Score:*\n%.2f", c.Score.Score)},
			},
		},
		{
			Type: "section",
			Fields: []slackText{
				{Type: "mrkdwn", Text: "*Location:*\n" + c.Job.Location},
				{Type: "mrkdwn", Text: "*First seen:*\n" + c.Job.FirstSeen.Format(time.RFC1123)},
			},
		},
	}

	if c.Job.URL != "" {
		blocks = append(blocks, slackBlock{
			Type: "actions",
			Elements: []slackElement{
				{
					Type:  "button",
					Text:  slackText{Type: "plain_text", Text: "View Posting"},
					URL:   c.Job.URL,
					Style: "primary",
				},
			},
		})
	}
	blocks = append(blocks, slackBlock{Type: "divider"})

	return slackPayload{Blocks: blocks}
}

func followUpPayload(apps []model.Application) slackPayload {
	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{Type: "plain_text", Text: fmt.Sprintf("⏰ %d follow-up(s) due", len(apps))},
		},
	}
	for _, app := range apps {
		due := ""
		if app.FollowUpDue != nil {
			due = app.FollowUpDue.Format(time.RFC1123)
		}
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("*%s* — job `%s` is *%s*, follow up (due %s)", app.UserID, app.JobID, app.State, due),
			},
		})
	}
	return slackPayload{Blocks: blocks}
}
