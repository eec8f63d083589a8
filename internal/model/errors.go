package model

import (
	"fmt"
	"time"
)

// SourceUnavailableError is a transient adapter failure (network error,
// 5xx, malformed response). The retry decorator retries these; the
// coordinator marks the adapter failed-for-cycle once retries run out.
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// SourceBlockedError means the source returned an anti-scraping response
// (403, captcha page, 429). Never retried within the same cycle; the
// coordinator backs the source off exponentially across cycles.
type SourceBlockedError struct {
	Source     string
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *SourceBlockedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source %s blocked: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("source %s blocked", e.Source)
}

func (e *SourceBlockedError) Unwrap() error {
	return e.Err
}
