// Package adapter implements source adapters for individual job boards.
// Each adapter normalizes board-specific payloads into model.RawPosting
// and classifies failures into the SourceUnavailable / SourceBlocked
// taxonomy so the coordinator can retry or back off appropriately.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

// userAgent identifies us honestly; boards that dislike it respond 403
// and we back off instead of disguising.
const userAgent = "job-auto-apply/1.0"

// getJSON fetches url and decodes the JSON body into v, mapping failures
// onto the source error taxonomy.
func getJSON(ctx context.Context, client *http.Client, source, url string, v any) error {
	resp, err := get(ctx, client, source, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &model.SourceUnavailableError{Source: source, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// get issues the request and classifies the status code. A non-nil
// response is always 200 and its body must be closed by the caller.
func get(ctx context.Context, client *http.Client, source, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &model.SourceUnavailableError{Source: source, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &model.SourceUnavailableError{Source: source, Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp, nil
	case resp.StatusCode == http.StatusForbidden:
		resp.Body.Close()
		return nil, &model.SourceBlockedError{
			Source: source,
			Err:    fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		resp.Body.Close()
		return nil, &model.SourceBlockedError{
			Source:     source,
			RetryAfter: retryAfter,
			Err:        fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	default:
		resp.Body.Close()
		return nil, &model.SourceUnavailableError{
			Source: source,
			Err:    fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
