package notifier

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleCandidate(title, company string) model.Candidate {
	return model.Candidate{
		Job: model.Job{
			ID:        "job-1",
			Company:   company,
			Title:     title,
			Location:  "remote",
			URL:       "https://example.com/apply",
			FirstSeen: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		Score: model.MatchScore{UserID: "amy", JobID: "job-1", Score: 0.82},
	}
}

func TestSlackNotifyCandidatesEmpty(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	n := NewSlack(srv.URL, srv.Client(), discardLogger())

	if err := n.NotifyCandidates("amy", nil); err != nil {
		t.Errorf("NotifyCandidates(nil) = %v, want nil", err)
	}
	if c := calls.Load(); c != 0 {
		t.Errorf("expected 0 HTTP calls, got %d", c)
	}
}

func TestSlackNotifyCandidatesPayload(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	n := NewSlack(srv.URL, srv.Client(), discardLogger())
	c := sampleCandidate("go engineer", "acme")

	if err := n.NotifyCandidates("amy", []model.Candidate{c}); err != nil {
		t.Fatalf("NotifyCandidates: %v", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	header := payload.Blocks[0]
	if header.Text.Text != "🎯 acme: go engineer" {
		t.Errorf("header text = %q", header.Text.Text)
	}
	if got := payload.Blocks[1].Fields[0].Text; got != "*For:*\namy" {
		t.Errorf("user field = %q", got)
	}
	if got := payload.Blocks[1].Fields[1].Text; got != "*Score:*\n0.82" {
		t.Errorf("score field = %q", got)
	}

	actionURL := payload.Blocks[3].Elements[0].URL
	if actionURL != "https://example.com/apply" {
		t.Errorf("action URL = %q", actionURL)
	}
}

func TestSlackNotifyCandidatesPartialFailureIsNotAnError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	n := NewSlack(srv.URL, srv.Client(), discardLogger())
	candidates := []model.Candidate{
		sampleCandidate("engineer 1", "a"),
		sampleCandidate("engineer 2", "b"),
	}

	if err := n.NotifyCandidates("amy", candidates); err != nil {
		t.Errorf("partial failure returned error: %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls, got %d", c)
	}
}

func TestSlackNotifyCandidatesAllFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewSlack(srv.URL, srv.Client(), discardLogger())
	if err := n.NotifyCandidates("amy", []model.Candidate{sampleCandidate("x", "y")}); err == nil {
		t.Error("all notifications failing should return an error")
	}
}

func TestSlackNotifyFollowUps(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	n := NewSlack(srv.URL, srv.Client(), discardLogger())

	due := time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)
	apps := []model.Application{
		{UserID: "amy", JobID: "job-1", State: model.StateApplied, FollowUpDue: &due},
		{UserID: "bob", JobID: "job-2", State: model.StatePending, FollowUpDue: &due},
	}
	if err := n.NotifyFollowUps(apps); err != nil {
		t.Fatalf("NotifyFollowUps: %v", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Blocks[0].Text.Text != "⏰ 2 follow-up(s) due" {
		t.Errorf("header = %q", payload.Blocks[0].Text.Text)
	}
	if len(payload.Blocks) != 3 {
		t.Fatalf("got %d blocks, want header + 2 sections", len(payload.Blocks))
	}
	if !strings.Contains(payload.Blocks[1].Text.Text, "job-1") {
		t.Errorf("first section = %q", payload.Blocks[1].Text.Text)
	}

	// No due follow-ups, no message.
	if err := n.NotifyFollowUps(nil); err != nil {
		t.Errorf("NotifyFollowUps(nil) = %v, want nil", err)
	}
}

func TestSlackRetriesOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	defer srv.Close()

	n := NewSlack(srv.URL, srv.Client(), discardLogger())
	if err := n.NotifyFollowUps([]model.Application{{UserID: "amy", JobID: "j", State: model.StateApplied}}); err != nil {
		t.Fatalf("NotifyFollowUps: %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected retry after 429, got %d calls", c)
	}
}
