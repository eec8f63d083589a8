package model

// Notifier surfaces results to the outside world (Slack, log, ...).
// Both methods tolerate empty input.
type Notifier interface {
	// NotifyCandidates announces newly surfaced high-score candidates
	// for a user.
	NotifyCandidates(user string, candidates []Candidate) error

	// NotifyFollowUps reminds about applications whose follow-up is due.
	NotifyFollowUps(apps []Application) error
}
