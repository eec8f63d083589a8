package model

// Profile is a user's stated job preferences. Supplied by the external
// user-management layer; the matching engine treats it as read-only.
type Profile struct {
	UserID            string
	Keywords          []string
	Locations         []string
	RoleTypes         []string
	ExcludedCompanies []string
	MinScore          float64 // matches below this are not surfaced
}

// MatchScore is the result of scoring one job against one profile.
// Derived data: recomputed on demand, never persisted as authoritative.
type MatchScore struct {
	UserID          string
	JobID           string
	Score           float64
	MatchedKeywords []string // sorted for determinism
}

// Candidate pairs a canonical job with its score for presentation.
type Candidate struct {
	Job   Job
	Score MatchScore
}
