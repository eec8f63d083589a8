package adapter

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

const greenhouseBaseURL = "https://boards-api.greenhouse.io/v1/boards"

// greenhouseJob represents a single job in the Greenhouse API response.
type greenhouseJob struct {
	ID          int64              `json:"id"`
	Title       string             `json:"title"`
	Location    greenhouseLocation `json:"location"`
	AbsoluteURL string             `json:"absolute_url"`
	UpdatedAt   string             `json:"updated_at"`
	Content     string             `json:"content"`
}

type greenhouseLocation struct {
	Name string `json:"name"`
}

// greenhouseResponse is the top-level Greenhouse jobs API response.
type greenhouseResponse struct {
	Jobs []greenhouseJob `json:"jobs"`
}

// Greenhouse fetches postings from the Greenhouse public boards API.
// The cursor is the RFC3339 updated_at high-water mark of the last
// successful fetch; postings at or before it are skipped.
type Greenhouse struct {
	boardToken  string
	companyName string
	client      *http.Client
}

// NewGreenhouse creates an adapter for a Greenhouse board.
func NewGreenhouse(boardToken, companyName string, client *http.Client) *Greenhouse {
	return &Greenhouse{
		boardToken:  boardToken,
		companyName: companyName,
		client:      client,
	}
}

func (a *Greenhouse) Name() string {
	return "greenhouse/" + a.boardToken
}

func (a *Greenhouse) Capabilities() model.Capabilities {
	return model.Capabilities{Paginates: true}
}

// Fetch retrieves postings updated since the cursor and normalizes them.
func (a *Greenhouse) Fetch(ctx context.Context, cursor string) ([]model.RawPosting, string, error) {
	url := fmt.Sprintf("%s/%s/jobs?content=true", greenhouseBaseURL, a.boardToken)

	var ghResp greenhouseResponse
	if err := getJSON(ctx, a.client, a.Name(), url, &ghResp); err != nil {
		return nil, "", err
	}

	var since time.Time
	if cursor != "" {
		t, err := time.Parse(time.RFC3339, cursor)
		if err == nil {
			since = t
		}
	}

	newCursor := cursor
	postings := make([]model.RawPosting, 0, len(ghResp.Jobs))
	for _, gj := range ghResp.Jobs {
		var updatedAt *time.Time
		if gj.UpdatedAt != "" {
			if t, err := time.Parse(time.RFC3339, gj.UpdatedAt); err == nil {
				updatedAt = &t
			}
		}

		if updatedAt != nil {
			if !since.IsZero() && !updatedAt.After(since) {
				continue
			}
			if newCursor == "" || updatedAt.After(mustParseCursor(newCursor)) {
				newCursor = updatedAt.Format(time.RFC3339)
			}
		}

		postings = append(postings, model.RawPosting{
			Source:      a.Name(),
			ExternalID:  fmt.Sprintf("%d", gj.ID),
			Title:       gj.Title,
			Company:     a.companyName,
			Location:    gj.Location.Name,
			Description: htmlToText(gj.Content),
			URL:         gj.AbsoluteURL,
			PostedAt:    updatedAt,
		})
	}

	return postings, newCursor, nil
}

func mustParseCursor(cursor string) time.Time {
	t, _ := time.Parse(time.RFC3339, cursor)
	return t
}

// htmlToText extracts plain text from the HTML-escaped description
// Greenhouse returns, so the content hash is stable across markup-only
// changes.
func htmlToText(escaped string) string {
	raw := html.UnescapeString(escaped)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	return strings.TrimSpace(doc.Text())
}
