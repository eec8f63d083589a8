package dedup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nvarshi2004/job-auto-apply/internal/clock"
	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

// Registry is the persistence surface the engine writes through. The
// store package provides the SQLite implementation.
type Registry interface {
	// FindByKey returns the job for the canonical key, or nil when absent.
	FindByKey(ctx context.Context, key Key) (*model.Job, error)
	// Insert stores a new canonical job.
	Insert(ctx context.Context, job model.Job) error
	// Touch updates last_seen (and re-activates) and appends the
	// provenance link if it is new. first_seen is never modified.
	Touch(ctx context.Context, jobID string, seenAt time.Time, link model.ProvenanceLink) error
	// MarkInactiveBefore flags jobs unseen since cutoff as inactive and
	// returns how many were flagged.
	MarkInactiveBefore(ctx context.Context, cutoff time.Time) (int, error)
	// RecordParseFailure stores the audit record for a posting that
	// could not be canonicalized.
	RecordParseFailure(ctx context.Context, f model.ParseFailure) error
}

const lockShards = 32

// Engine canonicalizes raw postings. It is the only writer of canonical
// job fields; writes to the same canonical key are serialized through a
// sharded mutex so concurrent producers cannot race on one key.
type Engine struct {
	registry Registry
	clock    clock.Clock
	logger   *slog.Logger
	shards   [lockShards]sync.Mutex
}

// NewEngine creates an engine over the given registry.
func NewEngine(registry Registry, clk clock.Clock, logger *slog.Logger) *Engine {
	return &Engine{
		registry: registry,
		clock:    clk,
		logger:   logger,
	}
}

// KeyFor computes the canonical key for a raw posting.
func KeyFor(p model.RawPosting) Key {
	return Key{
		Company:  NormalizeCompany(p.Company),
		Title:    NormalizeTitle(p.Title),
		Location: NormalizeLocation(p.Location),
		Hash:     DescriptionHash(p.Description),
	}
}

// Ingest canonicalizes one raw posting. Re-observing a known posting only
// moves last_seen and possibly adds a provenance link, so re-running an
// identical cycle is idempotent. Returns the job id and whether a new
// canonical job was created. Postings missing title or company are
// recorded as parse failures and reported with a nil error.
func (e *Engine) Ingest(ctx context.Context, p model.RawPosting) (jobID string, created bool, err error) {
	if p.Title == "" || p.Company == "" {
		reason := "missing title"
		if p.Title != "" {
			reason = "missing company"
		}
		failure := model.ParseFailure{
			Source:  p.Source,
			Payload: fmt.Sprintf("%+v", p),
			Reason:  reason,
			At:      e.clock.Now(),
		}
		if ferr := e.registry.RecordParseFailure(ctx, failure); ferr != nil {
			return "", false, fmt.Errorf("recording parse failure from %s: %w", p.Source, ferr)
		}
		e.logger.Warn("unparseable posting recorded",
			"source", p.Source,
			"reason", reason,
		)
		return "", false, nil
	}

	key := KeyFor(p)
	link := model.ProvenanceLink{Source: p.Source, ExternalID: p.ExternalID}
	now := e.clock.Now()

	shard := &e.shards[key.Shard(lockShards)]
	shard.Lock()
	defer shard.Unlock()

	existing, err := e.registry.FindByKey(ctx, key)
	if err != nil {
		return "", false, fmt.Errorf("looking up canonical key: %w", err)
	}

	if existing != nil {
		// First writer wins: later postings for the same key only add
		// provenance and freshness.
		if err := e.registry.Touch(ctx, existing.ID, now, link); err != nil {
			return "", false, fmt.Errorf("touching job %s: %w", existing.ID, err)
		}
		return existing.ID, false, nil
	}

	job := model.Job{
		ID:              uuid.NewString(),
		Company:         key.Company,
		Title:           key.Title,
		Location:        key.Location,
		DescriptionHash: key.Hash,
		Description:     normalize(p.Description),
		URL:             p.URL,
		Provenance:      []model.ProvenanceLink{link},
		FirstSeen:       now,
		LastSeen:        now,
		Active:          true,
	}
	if err := e.registry.Insert(ctx, job); err != nil {
		return "", false, fmt.Errorf("inserting job for key %s: %w", key, err)
	}

	e.logger.Debug("canonical job created",
		"job_id", job.ID,
		"company", job.Company,
		"title", job.Title,
		"source", p.Source,
	)
	return job.ID, true, nil
}

// SweepStale flags jobs unseen for longer than window as inactive. Run
// once per cycle, after all adapters have completed — never before.
func (e *Engine) SweepStale(ctx context.Context, window time.Duration) (int, error) {
	cutoff := e.clock.Now().Add(-window)
	n, err := e.registry.MarkInactiveBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("sweeping stale jobs: %w", err)
	}
	if n > 0 {
		e.logger.Info("stale jobs flagged inactive", "count", n, "cutoff", cutoff)
	}
	return n, nil
}
