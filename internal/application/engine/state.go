package engine

import (
	domainErrors "github.com/cassiomorais/bingwa/internal/domain/errors"
)

// State is a step of one USSD round-trip.
type State string

const (
	StateIdle             State = "idle"
	StateAwaitingResponse State = "awaiting_response"
	StateClassifying      State = "classifying"
	StateDispatching      State = "dispatching"
	StateFailed           State = "failed"
)

var transitions = map[State][]State{
	StateIdle: {
		StateAwaitingResponse,
	},
	StateAwaitingResponse: {
		StateClassifying,
		StateFailed,
		StateIdle, // dial rejected
	},
	StateClassifying: {
		StateDispatching,
	},
	StateDispatching: {
		StateIdle,
	},
	StateFailed: {
		StateIdle,
	},
}

// CanTransitionTo reports whether the machine may move from s to next.
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func checkTransition(from, to State) error {
	if !from.CanTransitionTo(to) {
		return domainErrors.NewDomainError(
			"invalid_transition",
			"cannot transition from "+string(from)+" to "+string(to),
			domainErrors.ErrInvalidStateTransition,
		)
	}
	return nil
}
