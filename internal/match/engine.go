// Package match scores canonical jobs against preference profiles. All
// functions are pure and deterministic: identical inputs always yield
// identical scores, so cycle results are reproducible in tests.
package match

import (
	"sort"
	"strings"

	"github.com/nvarshi2004/job-auto-apply/internal/dedup"
	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

// Scoring weights. A keyword found in the title counts for more than one
// buried in the description; location and role-type are exact-match
// bonuses on top.
const (
	titleWeight   = 3.0
	descWeight    = 1.0
	locationBonus = 2.0
	roleTypeBonus = 2.0
)

// Score rates one job against one profile. The score is normalized to
// [0, 1] by the maximum attainable for the profile. A job from an
// excluded company always scores zero. Never returns an error: a
// non-matching job simply scores low.
func Score(profile model.Profile, job model.Job) model.MatchScore {
	score := model.MatchScore{UserID: profile.UserID, JobID: job.ID}

	for _, excluded := range profile.ExcludedCompanies {
		if dedup.NormalizeCompany(excluded) == job.Company {
			return score
		}
	}

	// Job fields are stored normalized; pad with spaces so whole-token
	// and phrase keywords match uniformly.
	title := " " + job.Title + " "
	desc := " " + job.Description + " "

	var total, max float64
	var matched []string

	for _, kw := range profile.Keywords {
		k := dedup.NormalizeTitle(kw)
		if k == "" {
			continue
		}
		max += titleWeight
		switch {
		case strings.Contains(title, " "+k+" "):
			total += titleWeight
			matched = append(matched, k)
		case strings.Contains(desc, " "+k+" "):
			total += descWeight
			matched = append(matched, k)
		}
	}

	if len(profile.Locations) > 0 {
		max += locationBonus
		for _, loc := range profile.Locations {
			if dedup.NormalizeLocation(loc) == job.Location {
				total += locationBonus
				break
			}
		}
	}

	if len(profile.RoleTypes) > 0 {
		max += roleTypeBonus
		for _, role := range profile.RoleTypes {
			r := dedup.NormalizeTitle(role)
			if r != "" && strings.Contains(title, " "+r+" ") {
				total += roleTypeBonus
				break
			}
		}
	}

	if max > 0 {
		score.Score = total / max
	}
	sort.Strings(matched)
	score.MatchedKeywords = matched
	return score
}

// Rank scores every job against the profile and returns candidates
// sorted by score descending, then job id ascending so ties break
// deterministically. Threshold filtering is the caller's concern.
func Rank(profile model.Profile, jobs []model.Job) []model.Candidate {
	candidates := make([]model.Candidate, 0, len(jobs))
	for _, job := range jobs {
		candidates = append(candidates, model.Candidate{
			Job:   job,
			Score: Score(profile, job),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score.Score != candidates[j].Score.Score {
			return candidates[i].Score.Score > candidates[j].Score.Score
		}
		return candidates[i].Job.ID < candidates[j].Job.ID
	})
	return candidates
}
