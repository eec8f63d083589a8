package model

import (
	"context"
	"time"
)

// RawPosting is a single job listing as produced by a source adapter.
// It is ephemeral: the dedup engine consumes it immediately and it is
// never stored in raw form (except on parse failure, for audit).
type RawPosting struct {
	Source      string     // adapter name, e.g. "greenhouse"
	ExternalID  string     // source-specific posting id
	Title       string     // job title as published
	Company     string     // company name as published
	Location    string     // location string as published
	Description string     // plain-text description
	URL         string     // direct link to the posting
	PostedAt    *time.Time // nullable (not all sources provide this)
}

// Capabilities describes what a source adapter supports. Flags are data,
// not behavior: the coordinator consults them when wiring decorators.
type Capabilities struct {
	Paginates    bool // adapter honors the cursor for incremental fetching
	RateLimited  bool // adapter should be wrapped with a rate limiter
	RequiresAuth bool // adapter needs credentials to fetch
}

// SourceAdapter fetches postings from one job board. Fetch returns the
// postings newer than the given cursor along with the cursor to resume
// from next cycle. The cursor is opaque to callers; an empty cursor means
// "fetch everything".
type SourceAdapter interface {
	Name() string
	Capabilities() Capabilities
	Fetch(ctx context.Context, cursor string) ([]RawPosting, string, error)
}
