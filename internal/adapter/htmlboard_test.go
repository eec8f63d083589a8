package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

var boardSelectors = Selectors{
	Job:         "div.job",
	Title:       "h3",
	Location:    ".loc",
	Link:        "a",
	Description: ".desc",
}

const boardPage = `<html><body>
	<div class="job">
		<h3>Site Reliability Engineer</h3>
		<span class="loc">Berlin</span>
		<a href="/careers/sre-1">Apply</a>
		<p class="desc">Keep it running.</p>
	</div>
	<div class="job">
		<h3>Frontend Engineer</h3>
		<span class="loc">Remote</span>
		<a href="https://other.example.com/fe-2">Apply</a>
		<p class="desc">Ship the UI.</p>
	</div>
</body></html>`

func TestHTMLBoardFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(boardPage))
	}))
	defer srv.Close()

	a := NewHTMLBoard("widgets", "Widgets GmbH", srv.URL+"/careers", boardSelectors, srv.Client())

	postings, cursor, err := a.Fetch(context.Background(), "offset-42")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("got %d postings, want 2", len(postings))
	}

	p := postings[0]
	if p.Source != "html/widgets" {
		t.Errorf("source = %q", p.Source)
	}
	if p.Title != "Site Reliability Engineer" {
		t.Errorf("title = %q", p.Title)
	}
	if p.Location != "Berlin" {
		t.Errorf("location = %q", p.Location)
	}
	if p.Description != "Keep it running." {
		t.Errorf("description = %q", p.Description)
	}
	// Relative links resolve against the page host; the link doubles as
	// the external id.
	want := srv.URL + "/careers/sre-1"
	if p.URL != want || p.ExternalID != want {
		t.Errorf("url = %q, external id = %q, want %q", p.URL, p.ExternalID, want)
	}
	if postings[1].URL != "https://other.example.com/fe-2" {
		t.Errorf("absolute link rewritten: %q", postings[1].URL)
	}

	// No pagination: the cursor passes through untouched.
	if cursor != "offset-42" {
		t.Errorf("cursor = %q", cursor)
	}
}

func TestHTMLBoardFetchDetectsChallengePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 200 status, but it is a bot wall, not a listing.
		w.Write([]byte(`<html><body><h1>Please solve this CAPTCHA to continue</h1></body></html>`))
	}))
	defer srv.Close()

	a := NewHTMLBoard("widgets", "Widgets GmbH", srv.URL, boardSelectors, srv.Client())

	_, _, err := a.Fetch(context.Background(), "")
	var blocked *model.SourceBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("err = %v, want SourceBlockedError", err)
	}
}

func TestHTMLBoardFetchEmptyTitleFlowsThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<div class="job"><span class="loc">Nowhere</span><a href="/x">Apply</a></div>
		</body></html>`))
	}))
	defer srv.Close()

	a := NewHTMLBoard("widgets", "Widgets GmbH", srv.URL, boardSelectors, srv.Client())

	postings, _, err := a.Fetch(context.Background(), "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	// Cards without a title still come back so the pipeline can record
	// them as parse failures instead of dropping them silently.
	if len(postings) != 1 {
		t.Fatalf("got %d postings, want 1", len(postings))
	}
	if postings[0].Title != "" {
		t.Errorf("title = %q, want empty", postings[0].Title)
	}
}
