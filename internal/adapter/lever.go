package adapter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

const leverBaseURL = "https://api.lever.co/v0/postings"

// leverCategories represents the categories object in a Lever job.
type leverCategories struct {
	Team       string `json:"team"`
	Department string `json:"department"`
	Location   string `json:"location"`
	Commitment string `json:"commitment"`
}

// leverJob represents a single job in the Lever API response.
type leverJob struct {
	ID               string          `json:"id"`
	Text             string          `json:"text"`
	DescriptionPlain string          `json:"descriptionPlain"`
	Categories       leverCategories `json:"categories"`
	CreatedAt        int64           `json:"createdAt"` // unix millis
	HostedURL        string          `json:"hostedUrl"`
}

// Lever fetches postings from the Lever public postings API. The cursor
// is the createdAt high-water mark in unix milliseconds.
type Lever struct {
	companySlug string
	companyName string
	client      *http.Client
}

// NewLever creates an adapter for a Lever board.
func NewLever(companySlug, companyName string, client *http.Client) *Lever {
	return &Lever{
		companySlug: companySlug,
		companyName: companyName,
		client:      client,
	}
}

func (a *Lever) Name() string {
	return "lever/" + a.companySlug
}

func (a *Lever) Capabilities() model.Capabilities {
	return model.Capabilities{Paginates: true}
}

// Fetch retrieves postings created since the cursor and normalizes them.
func (a *Lever) Fetch(ctx context.Context, cursor string) ([]model.RawPosting, string, error) {
	url := fmt.Sprintf("%s/%s?mode=json", leverBaseURL, a.companySlug)

	var leverJobs []leverJob
	if err := getJSON(ctx, a.client, a.Name(), url, &leverJobs); err != nil {
		return nil, "", err
	}

	var since int64
	if cursor != "" {
		v, err := strconv.ParseInt(cursor, 10, 64)
		if err == nil {
			since = v
		}
	}

	maxCreated := since
	postings := make([]model.RawPosting, 0, len(leverJobs))
	for _, lj := range leverJobs {
		if since > 0 && lj.CreatedAt <= since {
			continue
		}
		if lj.CreatedAt > maxCreated {
			maxCreated = lj.CreatedAt
		}

		var postedAt *time.Time
		if lj.CreatedAt > 0 {
			t := time.UnixMilli(lj.CreatedAt).UTC()
			postedAt = &t
		}

		postings = append(postings, model.RawPosting{
			Source:      a.Name(),
			ExternalID:  lj.ID,
			Title:       lj.Text,
			Company:     a.companyName,
			Location:    lj.Categories.Location,
			Description: lj.DescriptionPlain,
			URL:         lj.HostedURL,
			PostedAt:    postedAt,
		})
	}

	newCursor := cursor
	if maxCreated > since {
		newCursor = strconv.FormatInt(maxCreated, 10)
	}
	return postings, newCursor, nil
}
