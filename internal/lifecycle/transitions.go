// Package lifecycle owns the per-(user, job) application state machine.
//
// Valid state graph:
//
//	QUEUED ──► APPLIED ──► PENDING ──► INTERVIEW ──► OFFER
//	   │           │           │            │
//	   │           │           └──► REJECTED◄┘
//	   └───────────┴──────────────► WITHDRAWN (from any non-terminal)
//
// REJECTED, WITHDRAWN and OFFER are terminal states.
package lifecycle

import (
	"fmt"

	"github.com/nvarshi2004/job-auto-apply/internal/model"
)

// validTransitions lists every allowed (from → to) pair. WITHDRAWN is
// handled separately: it is reachable from any non-terminal state.
var validTransitions = map[model.State][]model.State{
	model.StateQueued:    {model.StateApplied},
	model.StateApplied:   {model.StatePending},
	model.StatePending:   {model.StateInterview, model.StateRejected},
	model.StateInterview: {model.StateRejected, model.StateOffer},
	// REJECTED, WITHDRAWN and OFFER are terminal — no outgoing transitions
}

// ParseState converts a raw string to a State, returning an error for
// unknown values.
func ParseState(s string) (model.State, error) {
	st := model.State(s)
	switch st {
	case model.StateQueued, model.StateApplied, model.StatePending,
		model.StateInterview, model.StateRejected, model.StateWithdrawn, model.StateOffer:
		return st, nil
	}
	return "", fmt.Errorf("unknown application state %q", s)
}

// IsTerminal reports whether the state has no outgoing transitions.
func IsTerminal(s model.State) bool {
	return s == model.StateRejected || s == model.StateWithdrawn || s == model.StateOffer
}

// IsTransitionAllowed returns true when moving from → to is permitted by
// the state machine.
func IsTransitionAllowed(from, to model.State) bool {
	if IsTerminal(from) {
		return false
	}
	if to == model.StateWithdrawn {
		return true
	}
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// nextForward returns the one-step advance used by CreateOrAdvance when
// the caller does not name a target state.
func nextForward(from model.State) (model.State, bool) {
	switch from {
	case model.StateQueued:
		return model.StateApplied, true
	case model.StateApplied:
		return model.StatePending, true
	}
	return "", false
}

// IllegalTransitionError rejects a transition request. The application's
// state and history are left unchanged.
type IllegalTransitionError struct {
	From model.State
	To   model.State
}

func (e *IllegalTransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("no further apply transition from %s", e.From)
	}
	return fmt.Sprintf("illegal transition %s → %s", e.From, e.To)
}
