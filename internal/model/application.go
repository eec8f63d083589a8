package model

import "time"

// State is an application's position in the lifecycle. The legal
// transition graph lives in the lifecycle package; values here mirror
// the application_state column in SQLite.
type State string

const (
	StateQueued    State = "QUEUED"
	StateApplied   State = "APPLIED"
	StatePending   State = "PENDING"
	StateInterview State = "INTERVIEW"
	StateRejected  State = "REJECTED"
	StateWithdrawn State = "WITHDRAWN"
	StateOffer     State = "OFFER"
)

// HistoryEntry is one accepted transition. History is append-only and
// immutable once written.
type HistoryEntry struct {
	State State
	At    time.Time
	Actor string
}

// Application tracks one (user, job) pair through the lifecycle. Created
// when the user acts on a candidate, never deleted, only transitioned.
type Application struct {
	UserID      string
	JobID       string
	State       State
	History     []HistoryEntry
	FollowUpDue *time.Time // nil when no follow-up is scheduled
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
