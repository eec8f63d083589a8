package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nvarshi2004/job-auto-apply/internal/lifecycle"
	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

// Ensure Store satisfies the lifecycle manager's persistence surface.
var _ lifecycle.ApplicationStore = (*Store)(nil)

// Get returns the application for the (user, job) pair with its full
// history, or nil when absent.
func (s *Store) Get(ctx context.Context, userID, jobID string) (*model.Application, error) {
	var app model.Application
	var due sql.NullInt64
	var createdAt, updatedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, job_id, state, follow_up_due, created_at, updated_at
		 FROM applications WHERE user_id = ? AND job_id = ?`,
		userID, jobID,
	).Scan(&app.UserID, &app.JobID, &app.State, &due, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting application %s/%s: %w", userID, jobID, err)
	}
	app.FollowUpDue = fromNullNanos(due)
	app.CreatedAt = fromNanos(createdAt)
	app.UpdatedAt = fromNanos(updatedAt)

	if err := s.loadHistory(ctx, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// Put upserts the application row and appends history entries beyond
// those already persisted. Existing history rows are never rewritten:
// the (user_id, job_id, seq) primary key plus INSERT OR IGNORE keeps the
// trail append-only even on replays.
func (s *Store) Put(ctx context.Context, app model.Application) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving application %s/%s: %w", app.UserID, app.JobID, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO applications (user_id, job_id, state, follow_up_due, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, job_id) DO UPDATE SET
		   state = excluded.state,
		   follow_up_due = excluded.follow_up_due,
		   updated_at = excluded.updated_at`,
		app.UserID, app.JobID, string(app.State), toNullNanos(app.FollowUpDue),
		toNanos(app.CreatedAt), toNanos(app.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("saving application %s/%s: %w", app.UserID, app.JobID, err)
	}

	for seq, entry := range app.History {
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO application_history (user_id, job_id, seq, state, actor, at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			app.UserID, app.JobID, seq, string(entry.State), entry.Actor, toNanos(entry.At),
		)
		if err != nil {
			return fmt.Errorf("saving history for %s/%s: %w", app.UserID, app.JobID, err)
		}
	}

	return tx.Commit()
}

// DueBefore lists applications whose follow-up is due at or before t.
func (s *Store) DueBefore(ctx context.Context, t time.Time) ([]model.Application, error) {
	return s.listApplications(ctx,
		`SELECT user_id, job_id, state, follow_up_due, created_at, updated_at
		 FROM applications
		 WHERE follow_up_due IS NOT NULL AND follow_up_due <= ?
		 ORDER BY follow_up_due`, toNanos(t))
}

// ListApplications returns a user's applications, newest first. A
// non-empty state filters to that state.
func (s *Store) ListApplications(ctx context.Context, userID string, state model.State) ([]model.Application, error) {
	if state != "" {
		return s.listApplications(ctx,
			`SELECT user_id, job_id, state, follow_up_due, created_at, updated_at
			 FROM applications WHERE user_id = ? AND state = ? ORDER BY updated_at DESC`,
			userID, string(state))
	}
	return s.listApplications(ctx,
		`SELECT user_id, job_id, state, follow_up_due, created_at, updated_at
		 FROM applications WHERE user_id = ? ORDER BY updated_at DESC`, userID)
}

func (s *Store) listApplications(ctx context.Context, query string, args ...any) ([]model.Application, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	defer rows.Close()

	var apps []model.Application
	for rows.Next() {
		var app model.Application
		var due sql.NullInt64
		var createdAt, updatedAt int64
		if err := rows.Scan(&app.UserID, &app.JobID, &app.State, &due, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning application: %w", err)
		}
		app.FollowUpDue = fromNullNanos(due)
		app.CreatedAt = fromNanos(createdAt)
		app.UpdatedAt = fromNanos(updatedAt)
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range apps {
		if err := s.loadHistory(ctx, &apps[i]); err != nil {
			return nil, err
		}
	}
	return apps, nil
}

func (s *Store) loadHistory(ctx context.Context, app *model.Application) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT state, actor, at FROM application_history
		 WHERE user_id = ? AND job_id = ? ORDER BY seq`,
		app.UserID, app.JobID,
	)
	if err != nil {
		return fmt.Errorf("loading history for %s/%s: %w", app.UserID, app.JobID, err)
	}
	defer rows.Close()

	app.History = nil
	for rows.Next() {
		var entry model.HistoryEntry
		var at int64
		if err := rows.Scan(&entry.State, &entry.Actor, &at); err != nil {
			return fmt.Errorf("scanning history for %s/%s: %w", app.UserID, app.JobID, err)
		}
		entry.At = fromNanos(at)
		app.History = append(app.History, entry)
	}
	return rows.Err()
}
