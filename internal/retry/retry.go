package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

// Adapter is a decorator that retries transient source failures with
// exponential backoff and jitter before delegating to the wrapped
// SourceAdapter. Blocked sources are never retried here: the coordinator
// backs those off across cycles instead.
type Adapter struct {
	inner      model.SourceAdapter
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// New wraps a SourceAdapter with retry logic. maxRetries is the number
// of additional attempts after the first failure; baseDelay is the delay
// before the first retry, doubled on each subsequent one.
func New(inner model.SourceAdapter, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *Adapter {
	return &Adapter{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

func (a *Adapter) Name() string { return a.inner.Name() }

func (a *Adapter) Capabilities() model.Capabilities { return a.inner.Capabilities() }

// Fetch attempts the fetch, retrying on transient errors.
func (a *Adapter) Fetch(ctx context.Context, cursor string) ([]model.RawPosting, string, error) {
	postings, newCursor, err := a.inner.Fetch(ctx, cursor)
	if err == nil {
		return postings, newCursor, nil
	}

	if !isRetryable(err) {
		return nil, "", err
	}

	lastErr := err
	for attempt := 1; attempt <= a.maxRetries; attempt++ {
		delay := a.backoffDelay(attempt)

		a.logger.Warn("retrying after transient error",
			"source", a.inner.Name(),
			"attempt", attempt,
			"max_retries", a.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return nil, "", fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		postings, newCursor, err = a.inner.Fetch(ctx, cursor)
		if err == nil {
			return postings, newCursor, nil
		}

		if !isRetryable(err) {
			return nil, "", err
		}
		lastErr = err
	}

	return nil, "", lastErr
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
func (a *Adapter) backoffDelay(attempt int) time.Duration {
	// Exponential: baseDelay * 2^(attempt-1)
	delay := a.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	jitter := float64(delay) * 0.3
	return time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
}

// isRetryable returns true only for transient source failures. Blocked
// sources and cancelled contexts are surfaced immediately.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var blocked *model.SourceBlockedError
	if errors.As(err, &blocked) {
		return false
	}

	var unavailable *model.SourceUnavailableError
	return errors.As(err, &unavailable)
}
