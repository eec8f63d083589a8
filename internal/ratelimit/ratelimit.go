package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

// SourceLimiter enforces a minimum delay between requests to the same
// source backend.
type SourceLimiter struct {
	mu       sync.Mutex
	lastCall map[string]time.Time // key: source name
	minDelay time.Duration
}

// NewSourceLimiter creates a limiter that enforces minDelay between
// consecutive requests to the same source.
func NewSourceLimiter(minDelay time.Duration) *SourceLimiter {
	return &SourceLimiter{
		lastCall: make(map[string]time.Time),
		minDelay: minDelay,
	}
}

// Wait blocks until enough time has passed since the last request to the
// given source. Returns an error if the context is cancelled while
// waiting.
func (r *SourceLimiter) Wait(ctx context.Context, source string) error {
	r.mu.Lock()
	last, ok := r.lastCall[source]
	now := time.Now()

	if !ok {
		// First request for this source — no wait needed.
		r.lastCall[source] = now
		r.mu.Unlock()
		return nil
	}

	elapsed := now.Sub(last)
	if elapsed >= r.minDelay {
		r.lastCall[source] = now
		r.mu.Unlock()
		return nil
	}

	remaining := r.minDelay - elapsed
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", source, ctx.Err())
	case <-time.After(remaining):
	}

	r.mu.Lock()
	r.lastCall[source] = time.Now()
	r.mu.Unlock()

	return nil
}

// Adapter is a decorator that waits on the shared limiter before
// delegating to the wrapped SourceAdapter.
type Adapter struct {
	inner   model.SourceAdapter
	limiter *SourceLimiter
}

// New wraps a SourceAdapter with rate limiting. Adapters hitting the
// same backend should share one limiter instance.
func New(inner model.SourceAdapter, limiter *SourceLimiter) *Adapter {
	return &Adapter{inner: inner, limiter: limiter}
}

func (a *Adapter) Name() string { return a.inner.Name() }

func (a *Adapter) Capabilities() model.Capabilities { return a.inner.Capabilities() }

// Fetch waits for the limiter to allow a request, then delegates.
func (a *Adapter) Fetch(ctx context.Context, cursor string) ([]model.RawPosting, string, error) {
	if err := a.limiter.Wait(ctx, a.inner.Name()); err != nil {
		return nil, "", err
	}
	return a.inner.Fetch(ctx, cursor)
}
