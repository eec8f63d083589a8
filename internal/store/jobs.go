package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nvarshi2004/job-auto-apply/internal/dedup"
	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

// Ensure Store satisfies the dedup engine's registry surface.
var _ dedup.Registry = (*Store)(nil)

// FindByKey returns the canonical job for the key, or nil when absent.
func (s *Store) FindByKey(ctx context.Context, key dedup.Key) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company, title, location, desc_hash, description, url, first_seen, last_seen, active
		 FROM jobs
		 WHERE company = ? AND title = ? AND location = ? AND desc_hash = ?`,
		key.Company, key.Title, key.Location, key.Hash,
	)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding job by key: %w", err)
	}
	if err := s.loadProvenance(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob returns the canonical job by internal id, or nil when absent.
func (s *Store) GetJob(ctx context.Context, jobID string) (*model.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company, title, location, desc_hash, description, url, first_seen, last_seen, active
		 FROM jobs WHERE id = ?`, jobID,
	)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting job %s: %w", jobID, err)
	}
	if err := s.loadProvenance(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Insert stores a new canonical job with its provenance links.
func (s *Store) Insert(ctx context.Context, job model.Job) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("inserting job %s: %w", job.ID, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO jobs (id, company, title, location, desc_hash, description, url, first_seen, last_seen, active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Company, job.Title, job.Location, job.DescriptionHash,
		job.Description, job.URL, toNanos(job.FirstSeen), toNanos(job.LastSeen), boolToInt(job.Active),
	)
	if err != nil {
		return fmt.Errorf("inserting job %s: %w", job.ID, err)
	}

	for _, link := range job.Provenance {
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO provenance (job_id, source, external_id) VALUES (?, ?, ?)`,
			job.ID, link.Source, link.ExternalID,
		)
		if err != nil {
			return fmt.Errorf("inserting provenance for job %s: %w", job.ID, err)
		}
	}

	return tx.Commit()
}

// Touch refreshes last_seen, re-activates the job, and records the
// provenance link if it is new. first_seen is left untouched.
func (s *Store) Touch(ctx context.Context, jobID string, seenAt time.Time, link model.ProvenanceLink) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET last_seen = ?, active = 1 WHERE id = ?`,
		toNanos(seenAt), jobID,
	)
	if err != nil {
		return fmt.Errorf("touching job %s: %w", jobID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO provenance (job_id, source, external_id) VALUES (?, ?, ?)`,
		jobID, link.Source, link.ExternalID,
	)
	if err != nil {
		return fmt.Errorf("adding provenance for job %s: %w", jobID, err)
	}
	return nil
}

// MarkInactiveBefore flags active jobs unseen since cutoff as inactive.
// Rows are retained for audit.
func (s *Store) MarkInactiveBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET active = 0 WHERE active = 1 AND last_seen < ?`,
		toNanos(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("marking stale jobs inactive: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("marking stale jobs inactive: %w", err)
	}
	return int(n), nil
}

// RecordParseFailure appends a parse-failure audit record.
func (s *Store) RecordParseFailure(ctx context.Context, f model.ParseFailure) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO parse_failures (source, payload, reason, at) VALUES (?, ?, ?, ?)`,
		f.Source, f.Payload, f.Reason, toNanos(f.At),
	)
	if err != nil {
		return fmt.Errorf("recording parse failure from %s: %w", f.Source, err)
	}
	return nil
}

// ListParseFailures returns recorded parse failures, newest first.
func (s *Store) ListParseFailures(ctx context.Context, limit int) ([]model.ParseFailure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, payload, reason, at FROM parse_failures ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing parse failures: %w", err)
	}
	defer rows.Close()

	var failures []model.ParseFailure
	for rows.Next() {
		var f model.ParseFailure
		var at int64
		if err := rows.Scan(&f.Source, &f.Payload, &f.Reason, &at); err != nil {
			return nil, fmt.Errorf("scanning parse failure: %w", err)
		}
		f.At = fromNanos(at)
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

// ListActiveJobs returns every active canonical job.
func (s *Store) ListActiveJobs(ctx context.Context) ([]model.Job, error) {
	return s.listJobs(ctx,
		`SELECT id, company, title, location, desc_hash, description, url, first_seen, last_seen, active
		 FROM jobs WHERE active = 1 ORDER BY last_seen DESC`)
}

// ListJobsFirstSeenSince returns active jobs first observed at or after t.
// The coordinator uses this to surface candidates new to the cycle.
func (s *Store) ListJobsFirstSeenSince(ctx context.Context, t time.Time) ([]model.Job, error) {
	return s.listJobs(ctx,
		`SELECT id, company, title, location, desc_hash, description, url, first_seen, last_seen, active
		 FROM jobs WHERE active = 1 AND first_seen >= ? ORDER BY first_seen DESC`, toNanos(t))
}

// CountJobs returns total and active canonical job counts.
func (s *Store) CountJobs(ctx context.Context) (total, active int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(active), 0) FROM jobs`,
	).Scan(&total, &active)
	if err != nil {
		return 0, 0, fmt.Errorf("counting jobs: %w", err)
	}
	return total, active, nil
}

func (s *Store) listJobs(ctx context.Context, query string, args ...any) ([]model.Job, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range jobs {
		if err := s.loadProvenance(ctx, &jobs[i]); err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

func (s *Store) loadProvenance(ctx context.Context, job *model.Job) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, external_id FROM provenance WHERE job_id = ? ORDER BY source, external_id`,
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("loading provenance for job %s: %w", job.ID, err)
	}
	defer rows.Close()

	job.Provenance = nil
	for rows.Next() {
		var link model.ProvenanceLink
		if err := rows.Scan(&link.Source, &link.ExternalID); err != nil {
			return fmt.Errorf("scanning provenance for job %s: %w", job.ID, err)
		}
		job.Provenance = append(job.Provenance, link)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var job model.Job
	var firstSeen, lastSeen int64
	var active int
	err := row.Scan(
		&job.ID, &job.Company, &job.Title, &job.Location, &job.DescriptionHash,
		&job.Description, &job.URL, &firstSeen, &lastSeen, &active,
	)
	if err != nil {
		return nil, err
	}
	job.FirstSeen = fromNanos(firstSeen)
	job.LastSeen = fromNanos(lastSeen)
	job.Active = active != 0
	return &job, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
