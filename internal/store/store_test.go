package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nvarshi2004/job-auto-apply/internal/dedup"
	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testJob(id, company, title string, seen time.Time) model.Job {
	return model.Job{
		ID:              id,
		Company:         company,
		Title:           title,
		Location:        "remote",
		DescriptionHash: "hash-" + id,
		Description:     "build things",
		URL:             "https://example.com/" + id,
		Provenance:      []model.ProvenanceLink{{Source: "greenhouse/" + company, ExternalID: "ext-" + id}},
		FirstSeen:       seen,
		LastSeen:        seen,
		Active:          true,
	}
}

func TestJobsInsertAndFindByKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seen := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	job := testJob("j1", "acme", "go engineer", seen)
	require.NoError(t, s.Insert(ctx, job))

	got, err := s.FindByKey(ctx, dedup.Key{
		Company: "acme", Title: "go engineer", Location: "remote", Hash: "hash-j1",
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, job.ID, got.ID)
	require.Equal(t, job.Provenance, got.Provenance)
	require.True(t, got.FirstSeen.Equal(seen), "FirstSeen roundtrip")
	require.True(t, got.Active)

	// Different key misses.
	miss, err := s.FindByKey(ctx, dedup.Key{
		Company: "acme", Title: "go engineer", Location: "remote", Hash: "other",
	})
	require.NoError(t, err)
	require.Nil(t, miss)

	byID, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	require.NotNil(t, byID)
	require.Equal(t, "go engineer", byID.Title)
}

func TestJobsTouch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	seen := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Insert(ctx, testJob("j1", "acme", "go engineer", seen)))

	later := seen.Add(48 * time.Hour)
	link := model.ProvenanceLink{Source: "lever/acme", ExternalID: "lv-1"}
	require.NoError(t, s.Touch(ctx, "j1", later, link))

	got, err := s.GetJob(ctx, "j1")
	require.NoError(t, err)
	require.True(t, got.LastSeen.Equal(later), "LastSeen moved")
	require.True(t, got.FirstSeen.Equal(seen), "FirstSeen untouched")
	require.Len(t, got.Provenance, 2)

	// Touching with a known link is a no-op on provenance.
	require.NoError(t, s.Touch(ctx, "j1", later.Add(time.Hour), link))
	got, err = s.GetJob(ctx, "j1")
	require.NoError(t, err)
	require.Len(t, got.Provenance, 2)
}

func TestMarkInactiveBefore(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Insert(ctx, testJob("old", "acme", "old role", base)))
	require.NoError(t, s.Insert(ctx, testJob("new", "acme", "new role", base.Add(20*24*time.Hour))))

	n, err := s.MarkInactiveBefore(ctx, base.Add(10*24*time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	active, err := s.ListActiveJobs(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	require.Equal(t, "new", active[0].ID)

	// Second sweep with the same cutoff flags nothing new.
	n, err = s.MarkInactiveBefore(ctx, base.Add(10*24*time.Hour))
	require.NoError(t, err)
	require.Zero(t, n)

	total, activeCount, err := s.CountJobs(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Equal(t, 1, activeCount)
}

func TestListJobsFirstSeenSince(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Insert(ctx, testJob("before", "acme", "role a", base)))
	require.NoError(t, s.Insert(ctx, testJob("after", "acme", "role b", base.Add(2*time.Hour))))

	jobs, err := s.ListJobsFirstSeenSince(ctx, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, "after", jobs[0].ID)
}

func TestParseFailures(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	f := model.ParseFailure{
		Source:  "html/board",
		Payload: "{Title: }",
		Reason:  "missing title",
		At:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.RecordParseFailure(ctx, f))

	got, err := s.ListParseFailures(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, f.Reason, got[0].Reason)
	require.True(t, got[0].At.Equal(f.At))
}

func TestApplicationsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	missing, err := s.Get(ctx, "amy", "j1")
	require.NoError(t, err)
	require.Nil(t, missing)

	due := base.Add(7 * 24 * time.Hour)
	app := model.Application{
		UserID: "amy",
		JobID:  "j1",
		State:  model.StateApplied,
		History: []model.HistoryEntry{
			{State: model.StateQueued, At: base, Actor: "amy"},
			{State: model.StateApplied, At: base.Add(time.Hour), Actor: "amy"},
		},
		FollowUpDue: &due,
		CreatedAt:   base,
		UpdatedAt:   base.Add(time.Hour),
	}
	require.NoError(t, s.Put(ctx, app))

	got, err := s.Get(ctx, "amy", "j1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, model.StateApplied, got.State)
	require.Len(t, got.History, 2)
	require.Equal(t, model.StateQueued, got.History[0].State)
	require.Equal(t, model.StateApplied, got.History[1].State)
	require.True(t, got.FollowUpDue.Equal(due))

	// Upsert with one more history entry: earlier entries are immutable,
	// only the new seq is written.
	app.State = model.StatePending
	app.FollowUpDue = nil
	app.History = append(app.History, model.HistoryEntry{
		State: model.StatePending, At: base.Add(2 * time.Hour), Actor: "amy",
	})
	require.NoError(t, s.Put(ctx, app))

	got, err = s.Get(ctx, "amy", "j1")
	require.NoError(t, err)
	require.Equal(t, model.StatePending, got.State)
	require.Len(t, got.History, 3)
	require.Nil(t, got.FollowUpDue)
}

func TestDueBeforeAndListApplications(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	put := func(jobID string, state model.State, due *time.Time) {
		t.Helper()
		require.NoError(t, s.Put(ctx, model.Application{
			UserID:      "amy",
			JobID:       jobID,
			State:       state,
			History:     []model.HistoryEntry{{State: state, At: base, Actor: "amy"}},
			FollowUpDue: due,
			CreatedAt:   base,
			UpdatedAt:   base,
		}))
	}

	soon := base.Add(time.Hour)
	later := base.Add(72 * time.Hour)
	put("j1", model.StateApplied, &soon)
	put("j2", model.StateApplied, &later)
	put("j3", model.StateRejected, nil)

	due, err := s.DueBefore(ctx, base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, "j1", due[0].JobID)

	all, err := s.ListApplications(ctx, "amy", "")
	require.NoError(t, err)
	require.Len(t, all, 3)

	applied, err := s.ListApplications(ctx, "amy", model.StateApplied)
	require.NoError(t, err)
	require.Len(t, applied, 2)

	other, err := s.ListApplications(ctx, "bob", "")
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestProfilesRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.GetProfile(ctx, "amy")
	require.ErrorIs(t, err, ErrProfileNotFound)

	p := model.Profile{
		UserID:            "amy",
		Keywords:          []string{"go", "distributed systems"},
		Locations:         []string{"remote"},
		RoleTypes:         []string{"engineer"},
		ExcludedCompanies: []string{"evil corp"},
		MinScore:          0.4,
	}
	require.NoError(t, s.UpsertProfile(ctx, p))

	got, err := s.GetProfile(ctx, "amy")
	require.NoError(t, err)
	require.Equal(t, p, *got)

	// Upsert replaces.
	p.Keywords = []string{"rust"}
	require.NoError(t, s.UpsertProfile(ctx, p))
	got, err = s.GetProfile(ctx, "amy")
	require.NoError(t, err)
	require.Equal(t, []string{"rust"}, got.Keywords)

	all, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestCursors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cur, err := s.GetCursor(ctx, "greenhouse/acme")
	require.NoError(t, err)
	require.Empty(t, cur)

	require.NoError(t, s.SetCursor(ctx, "greenhouse/acme", "2026-03-01T00:00:00Z"))
	require.NoError(t, s.SetCursor(ctx, "greenhouse/acme", "2026-03-02T00:00:00Z"))

	cur, err = s.GetCursor(ctx, "greenhouse/acme")
	require.NoError(t, err)
	require.Equal(t, "2026-03-02T00:00:00Z", cur)
}
