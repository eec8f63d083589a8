package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

// Selectors describes how to pull fields out of a board's listing page.
type Selectors struct {
	Job         string // selector for one job card
	Title       string // within a card
	Location    string // within a card
	Link        string // anchor within a card; href becomes the URL
	Description string // within a card, optional
}

// HTMLBoard scrapes a career page that has no API, using configurable
// CSS selectors. It does not paginate: each fetch reads the listing page
// as-is and the cursor passes through unchanged. Captcha and challenge
// pages are reported as blocked, not parsed.
type HTMLBoard struct {
	name        string
	companyName string
	pageURL     string
	selectors   Selectors
	client      *http.Client
}

// NewHTMLBoard creates an adapter for a selector-driven career page.
func NewHTMLBoard(name, companyName, pageURL string, sel Selectors, client *http.Client) *HTMLBoard {
	return &HTMLBoard{
		name:        name,
		companyName: companyName,
		pageURL:     pageURL,
		selectors:   sel,
		client:      client,
	}
}

func (a *HTMLBoard) Name() string {
	return "html/" + a.name
}

func (a *HTMLBoard) Capabilities() model.Capabilities {
	return model.Capabilities{RateLimited: true}
}

// blockedMarkers are substrings of anti-scraping challenge pages that
// come back with a 200 status.
var blockedMarkers = []string{
	"captcha",
	"are you a human",
	"access denied",
	"unusual traffic",
}

// Fetch reads the listing page and extracts one posting per job card.
func (a *HTMLBoard) Fetch(ctx context.Context, cursor string) ([]model.RawPosting, string, error) {
	resp, err := get(ctx, a.client, a.Name(), a.pageURL)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &model.SourceUnavailableError{Source: a.Name(), Err: err}
	}

	lower := strings.ToLower(string(body))
	for _, marker := range blockedMarkers {
		if strings.Contains(lower, marker) {
			return nil, "", &model.SourceBlockedError{
				Source: a.Name(),
				Err:    fmt.Errorf("challenge page detected (%q)", marker),
			}
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, "", &model.SourceUnavailableError{Source: a.Name(), Err: fmt.Errorf("parsing page: %w", err)}
	}

	var postings []model.RawPosting
	doc.Find(a.selectors.Job).Each(func(_ int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find(a.selectors.Title).First().Text())
		location := strings.TrimSpace(card.Find(a.selectors.Location).First().Text())

		link, _ := card.Find(a.selectors.Link).First().Attr("href")
		link = strings.TrimSpace(link)
		if strings.HasPrefix(link, "/") {
			link = strings.TrimSuffix(baseOf(a.pageURL), "/") + link
		}

		description := ""
		if a.selectors.Description != "" {
			description = strings.TrimSpace(card.Find(a.selectors.Description).First().Text())
		}

		// The link doubles as the external id; boards without APIs have
		// no better stable identifier. Cards without one still flow
		// through so the dedup engine can record the parse failure.
		postings = append(postings, model.RawPosting{
			Source:      a.Name(),
			ExternalID:  link,
			Title:       title,
			Company:     a.companyName,
			Location:    location,
			Description: description,
			URL:         link,
		})
	})

	return postings, cursor, nil
}

// baseOf reduces a page URL to scheme://host for resolving relative links.
func baseOf(pageURL string) string {
	idx := strings.Index(pageURL, "://")
	if idx < 0 {
		return pageURL
	}
	rest := pageURL[idx+3:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		return pageURL[:idx+3+slash]
	}
	return pageURL
}
