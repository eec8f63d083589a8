package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/nvarshi2004/job-auto-apply/internal/clock"
	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

// ErrNotFound is returned when no application exists for a (user, job)
// pair.
var ErrNotFound = errors.New("application not found")

// ApplicationStore is the persistence surface the manager writes
// through. The store package provides the SQLite implementation.
type ApplicationStore interface {
	// Get returns the application for the pair, or nil when absent.
	Get(ctx context.Context, userID, jobID string) (*model.Application, error)
	// Put upserts the application row and persists any history entries
	// not yet written. Persisted history is never rewritten.
	Put(ctx context.Context, app model.Application) error
	// DueBefore lists applications whose follow-up is due at or before t.
	DueBefore(ctx context.Context, t time.Time) ([]model.Application, error)
}

const lockStripes = 32

// Manager is the single writer of application state. Writes to the same
// (user, job) pair are serialized through striped locks; pairs on
// different stripes proceed in parallel.
type Manager struct {
	store            ApplicationStore
	clock            clock.Clock
	followUpInterval time.Duration
	logger           *slog.Logger
	stripes          [lockStripes]sync.Mutex
}

// NewManager creates a Manager. followUpInterval is how long after
// applying the user should be prompted to follow up.
func NewManager(store ApplicationStore, clk clock.Clock, followUpInterval time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		store:            store,
		clock:            clk,
		followUpInterval: followUpInterval,
		logger:           logger,
	}
}

func (m *Manager) stripe(userID, jobID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write([]byte(jobID))
	return &m.stripes[h.Sum32()%lockStripes]
}

// Get returns the application for the pair or ErrNotFound.
func (m *Manager) Get(ctx context.Context, userID, jobID string) (*model.Application, error) {
	app, err := m.store.Get(ctx, userID, jobID)
	if err != nil {
		return nil, fmt.Errorf("loading application %s/%s: %w", userID, jobID, err)
	}
	if app == nil {
		return nil, ErrNotFound
	}
	return app, nil
}

// CreateOrAdvance is the external "apply" trigger. If no application
// exists for the pair it is created in QUEUED; otherwise it advances one
// step along QUEUED → APPLIED → PENDING. Any state past PENDING has no
// automatic next step and is rejected.
func (m *Manager) CreateOrAdvance(ctx context.Context, userID, jobID, actor string) (*model.Application, error) {
	mu := m.stripe(userID, jobID)
	mu.Lock()
	defer mu.Unlock()

	app, err := m.store.Get(ctx, userID, jobID)
	if err != nil {
		return nil, fmt.Errorf("loading application %s/%s: %w", userID, jobID, err)
	}

	now := m.clock.Now()
	if app == nil {
		created := model.Application{
			UserID:    userID,
			JobID:     jobID,
			State:     model.StateQueued,
			History:   []model.HistoryEntry{{State: model.StateQueued, At: now, Actor: actor}},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := m.store.Put(ctx, created); err != nil {
			return nil, fmt.Errorf("creating application %s/%s: %w", userID, jobID, err)
		}
		m.logger.Info("application created",
			"user", userID,
			"job", jobID,
			"state", created.State,
		)
		return &created, nil
	}

	next, ok := nextForward(app.State)
	if !ok {
		return nil, &IllegalTransitionError{From: app.State}
	}
	return m.transition(ctx, app, next, actor)
}

// Advance moves the application to target. Illegal requests fail with
// IllegalTransitionError and leave state and history unchanged.
func (m *Manager) Advance(ctx context.Context, userID, jobID string, target model.State, actor string) (*model.Application, error) {
	mu := m.stripe(userID, jobID)
	mu.Lock()
	defer mu.Unlock()

	app, err := m.store.Get(ctx, userID, jobID)
	if err != nil {
		return nil, fmt.Errorf("loading application %s/%s: %w", userID, jobID, err)
	}
	if app == nil {
		return nil, ErrNotFound
	}
	if !IsTransitionAllowed(app.State, target) {
		return nil, &IllegalTransitionError{From: app.State, To: target}
	}
	return m.transition(ctx, app, target, actor)
}

// transition applies an already validated state change: exactly one
// history entry, and the follow-up due timestamp per the target state.
// Callers hold the pair's stripe lock.
func (m *Manager) transition(ctx context.Context, app *model.Application, target model.State, actor string) (*model.Application, error) {
	now := m.clock.Now()

	app.State = target
	app.History = append(app.History, model.HistoryEntry{State: target, At: now, Actor: actor})
	app.UpdatedAt = now

	switch {
	case target == model.StateApplied, target == model.StatePending:
		due := now.Add(m.followUpInterval)
		app.FollowUpDue = &due
	case IsTerminal(target):
		app.FollowUpDue = nil
	}

	if err := m.store.Put(ctx, *app); err != nil {
		return nil, fmt.Errorf("saving application %s/%s: %w", app.UserID, app.JobID, err)
	}

	m.logger.Info("application advanced",
		"user", app.UserID,
		"job", app.JobID,
		"state", target,
		"actor", actor,
	)
	return app, nil
}

// DueFollowUps lists applications whose follow-up is due at or before
// now. The scheduler polls this; the manager itself never fires timers.
func (m *Manager) DueFollowUps(ctx context.Context, now time.Time) ([]model.Application, error) {
	apps, err := m.store.DueBefore(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("listing due follow-ups: %w", err)
	}
	return apps, nil
}
