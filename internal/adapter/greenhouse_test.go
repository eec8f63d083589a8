package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// redirectClient rewrites every request onto the test server.
func redirectClient(srv *httptest.Server) *http.Client {
	return &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			req.URL.Scheme = "http"
			req.URL.Host = srv.Listener.Addr().String()
			return http.DefaultTransport.RoundTrip(req)
		}),
	}
}

const greenhousePayload = `{
	"jobs": [
		{
			"id": 12345,
			"title": "Software Engineer",
			"location": {"name": "San Francisco, CA"},
			"absolute_url": "https://boards.greenhouse.io/acme/jobs/12345",
			"updated_at": "2026-02-13T10:00:00Z",
			"content": "&lt;p&gt;Build &lt;b&gt;distributed&lt;/b&gt; systems.&lt;/p&gt;"
		},
		{
			"id": 67890,
			"title": "Backend Engineer",
			"location": {"name": "Remote, US"},
			"absolute_url": "https://boards.greenhouse.io/acme/jobs/67890",
			"updated_at": "2026-02-14T11:30:00Z",
			"content": "&lt;p&gt;APIs.&lt;/p&gt;"
		}
	]
}`

func TestGreenhouseFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(greenhousePayload))
	}))
	defer srv.Close()

	a := NewGreenhouse("acme", "Acme Corp", redirectClient(srv))

	postings, cursor, err := a.Fetch(context.Background(), "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("got %d postings, want 2", len(postings))
	}

	p := postings[0]
	if p.Source != "greenhouse/acme" {
		t.Errorf("source = %q", p.Source)
	}
	if p.ExternalID != "12345" {
		t.Errorf("external id = %q", p.ExternalID)
	}
	if p.Company != "Acme Corp" {
		t.Errorf("company = %q", p.Company)
	}
	if p.Description != "Build distributed systems." {
		t.Errorf("description not flattened: %q", p.Description)
	}
	if p.PostedAt == nil {
		t.Fatal("PostedAt not set")
	}

	// Cursor is the highest updated_at seen.
	if cursor != "2026-02-14T11:30:00Z" {
		t.Errorf("cursor = %q", cursor)
	}
}

func TestGreenhouseFetchSkipsUpToCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(greenhousePayload))
	}))
	defer srv.Close()

	a := NewGreenhouse("acme", "Acme Corp", redirectClient(srv))

	postings, cursor, err := a.Fetch(context.Background(), "2026-02-13T10:00:00Z")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("got %d postings, want 1 (posting at the cursor should be skipped)", len(postings))
	}
	if postings[0].ExternalID != "67890" {
		t.Errorf("kept the wrong posting: %q", postings[0].ExternalID)
	}
	if cursor != "2026-02-14T11:30:00Z" {
		t.Errorf("cursor = %q", cursor)
	}

	// Fetching again at the new cursor returns nothing and keeps it.
	postings, again, err := a.Fetch(context.Background(), cursor)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(postings) != 0 {
		t.Errorf("got %d postings, want 0", len(postings))
	}
	if again != cursor {
		t.Errorf("cursor moved without new postings: %q", again)
	}
}

func TestGreenhouseFetchBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	a := NewGreenhouse("acme", "Acme Corp", redirectClient(srv))

	_, _, err := a.Fetch(context.Background(), "")
	var blocked *model.SourceBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("err = %v, want SourceBlockedError", err)
	}
	if blocked.Source != "greenhouse/acme" {
		t.Errorf("source = %q", blocked.Source)
	}
}

func TestGreenhouseFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewGreenhouse("acme", "Acme Corp", redirectClient(srv))

	_, _, err := a.Fetch(context.Background(), "")
	var unavailable *model.SourceUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v, want SourceUnavailableError", err)
	}
}
