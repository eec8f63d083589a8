// Package scheduler drives the pipeline: it triggers scrape cycles,
// isolates adapter failures, feeds the dedup engine, runs matching, and
// polls for due follow-ups.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nvarshi2004/job-auto-apply/internal/clock"
	"github.com/nvarshi2004/job-auto-apply/internal/dedup"
	"github.com/nvarshi2004/job-auto-apply/internal/lifecycle"
	"github.com/nvarshi2004/job-auto-apply/internal/match"
	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

// CycleStore is the persistence surface the coordinator needs beyond the
// dedup and lifecycle owners: cursors, profiles, and cycle queries.
type CycleStore interface {
	GetCursor(ctx context.Context, source string) (string, error)
	SetCursor(ctx context.Context, source, cursor string) error
	ListProfiles(ctx context.Context) ([]model.Profile, error)
	ListJobsFirstSeenSince(ctx context.Context, t time.Time) ([]model.Job, error)
}

// Options tunes the coordinator.
type Options struct {
	StalenessWindow time.Duration // jobs unseen this long go inactive
	MatchThreshold  float64       // default minimum score to surface
	BlockedBackoff  time.Duration // base cross-cycle backoff for blocked sources
}

// blockState tracks exponential cross-cycle backoff for a blocked source.
type blockState struct {
	consecutive int
	until       time.Time
}

// Coordinator owns the scrape cycle. Adapters run concurrently with
// independent failure isolation; their output is serialized into the
// dedup engine through a single consumer, so the engine stays the single
// logical writer per cycle.
type Coordinator struct {
	adapters []model.SourceAdapter
	engine   *dedup.Engine
	manager  *lifecycle.Manager
	store    CycleStore
	notifier model.Notifier
	clock    clock.Clock
	opts     Options
	logger   *slog.Logger

	mu      sync.Mutex
	blocked map[string]blockState
}

// NewCoordinator wires the coordinator. Adapters should already carry
// their retry and rate-limit decorators.
func NewCoordinator(
	adapters []model.SourceAdapter,
	engine *dedup.Engine,
	manager *lifecycle.Manager,
	store CycleStore,
	notifier model.Notifier,
	clk clock.Clock,
	opts Options,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		adapters: adapters,
		engine:   engine,
		manager:  manager,
		store:    store,
		notifier: notifier,
		clock:    clk,
		opts:     opts,
		logger:   logger,
		blocked:  make(map[string]blockState),
	}
}

// RunCycle executes one scrape cycle: fetch from every non-backed-off
// adapter concurrently, ingest, sweep stale jobs, then match and notify.
// One adapter failing never fails the cycle. Cancellation mid-cycle
// leaves partial results committed; nothing is rolled back.
func (c *Coordinator) RunCycle(ctx context.Context) error {
	start := c.clock.Now()
	c.logger.Info("scrape cycle started", "adapters", len(c.adapters))

	postings := make(chan model.RawPosting, 64)

	// Single consumer: all adapter output funnels through here, keeping
	// the dedup engine a single logical writer for the cycle.
	var ingested, created int
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range postings {
			_, isNew, err := c.engine.Ingest(ctx, p)
			if err != nil {
				c.logger.Error("ingest failed", "source", p.Source, "error", err)
				continue
			}
			ingested++
			if isNew {
				created++
			}
		}
	}()

	// Adapters are failure-isolated: fetchOne never returns an error, so
	// the group only bounds the fan-out's lifetime.
	var g errgroup.Group
	for _, ad := range c.adapters {
		g.Go(func() error {
			c.fetchOne(ctx, ad, postings)
			return nil
		})
	}
	g.Wait()
	close(postings)
	<-done

	if err := ctx.Err(); err != nil {
		c.logger.Warn("cycle cancelled, partial results kept", "ingested", ingested)
		return err
	}

	// Staleness is judged only at the cycle boundary, after every
	// adapter has had its chance to re-observe.
	if _, err := c.engine.SweepStale(ctx, c.opts.StalenessWindow); err != nil {
		c.logger.Error("stale sweep failed", "error", err)
	}

	c.matchAndNotify(ctx, start)

	c.logger.Info("scrape cycle complete",
		"ingested", ingested,
		"created", created,
		"duration", time.Since(start).String(),
	)
	return nil
}

// fetchOne runs a single adapter with cursor handling and blocked-source
// bookkeeping. Errors never escape: failures are logged and the adapter
// is simply failed-for-cycle.
func (c *Coordinator) fetchOne(ctx context.Context, ad model.SourceAdapter, out chan<- model.RawPosting) {
	name := ad.Name()
	now := c.clock.Now()

	if until, waiting := c.blockedUntil(name); waiting && now.Before(until) {
		c.logger.Warn("source backed off, skipping this cycle",
			"source", name,
			"until", until,
		)
		return
	}

	cursor, err := c.store.GetCursor(ctx, name)
	if err != nil {
		c.logger.Error("loading cursor failed", "source", name, "error", err)
		return
	}

	fetched, newCursor, err := ad.Fetch(ctx, cursor)
	if err != nil {
		var blockedErr *model.SourceBlockedError
		if errors.As(err, &blockedErr) {
			delay := c.recordBlocked(name, blockedErr.RetryAfter)
			c.logger.Warn("source blocked, backing off",
				"source", name,
				"backoff", delay,
				"error", err,
			)
			return
		}
		c.logger.Error("source failed for cycle", "source", name, "error", err)
		return
	}

	c.resetBlocked(name)

	for _, p := range fetched {
		select {
		case <-ctx.Done():
			return
		case out <- p:
		}
	}

	// The cursor only advances after the postings are handed off, so a
	// failed cycle re-fetches rather than skipping.
	if newCursor != cursor {
		if err := c.store.SetCursor(ctx, name, newCursor); err != nil {
			c.logger.Error("saving cursor failed", "source", name, "error", err)
		}
	}

	c.logger.Info("source fetched", "source", name, "postings", len(fetched))
}

// matchAndNotify scores jobs first seen this cycle for every stored
// profile and surfaces those over the threshold.
func (c *Coordinator) matchAndNotify(ctx context.Context, cycleStart time.Time) {
	profiles, err := c.store.ListProfiles(ctx)
	if err != nil {
		c.logger.Error("listing profiles failed", "error", err)
		return
	}
	if len(profiles) == 0 {
		return
	}

	newJobs, err := c.store.ListJobsFirstSeenSince(ctx, cycleStart)
	if err != nil {
		c.logger.Error("listing new jobs failed", "error", err)
		return
	}
	if len(newJobs) == 0 {
		return
	}

	// Matching is read-only, so users can be scored in parallel.
	var g errgroup.Group
	for _, profile := range profiles {
		g.Go(func() error {
			threshold := profile.MinScore
			if threshold == 0 {
				threshold = c.opts.MatchThreshold
			}

			var surfaced []model.Candidate
			for _, cand := range match.Rank(profile, newJobs) {
				if cand.Score.Score >= threshold {
					surfaced = append(surfaced, cand)
				}
			}
			if len(surfaced) == 0 {
				return nil
			}

			if err := c.notifier.NotifyCandidates(profile.UserID, surfaced); err != nil {
				c.logger.Error("candidate notification failed",
					"user", profile.UserID,
					"error", err,
				)
				return nil
			}
			c.logger.Info("candidates surfaced",
				"user", profile.UserID,
				"count", len(surfaced),
			)
			return nil
		})
	}
	g.Wait()
}

// PollFollowUps surfaces applications whose follow-up is due. The
// manager only stores due timestamps; this poll is what "fires" them.
func (c *Coordinator) PollFollowUps(ctx context.Context) error {
	due, err := c.manager.DueFollowUps(ctx, c.clock.Now())
	if err != nil {
		return err
	}
	if len(due) == 0 {
		return nil
	}

	c.logger.Info("follow-ups due", "count", len(due))
	return c.notifier.NotifyFollowUps(due)
}

func (c *Coordinator) blockedUntil(source string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.blocked[source]
	return st.until, ok
}

// recordBlocked doubles the source's backoff on each consecutive blocked
// cycle. A Retry-After from the source takes precedence when longer.
func (c *Coordinator) recordBlocked(source string, retryAfter time.Duration) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.blocked[source]
	st.consecutive++

	delay := c.opts.BlockedBackoff << (st.consecutive - 1)
	if retryAfter > delay {
		delay = retryAfter
	}
	st.until = c.clock.Now().Add(delay)
	c.blocked[source] = st
	return delay
}

func (c *Coordinator) resetBlocked(source string) {
	c.mu.Lock()
	delete(c.blocked, source)
	c.mu.Unlock()
}
