package pipeline

import "github.com/spec-kit/ticket-copilot/internal/domain"

// State is a pipeline position. Transitions only move forward.
type State string

const (
	StateStart       State = "START"
	StateClassifying State = "CLASSIFYING"
	StateIdentifying State = "IDENTIFYING"
	StateAuthorizing State = "AUTHORIZING"
	StateResolving   State = "RESOLVING"

	StateResolved         State = "RESOLVED"
	StateRejected         State = "REJECTED"
	StateDenied           State = "DENIED"
	StateEscalated        State = "ESCALATED"
	StateIdentityError    State = "IDENTITY_ERROR"
	StateResolutionFailed State = "RESOLUTION_FAILED"
)

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	switch s {
	case StateResolved, StateRejected, StateDenied, StateEscalated, StateIdentityError, StateResolutionFailed:
		return true
	}
	return false
}

// TerminalState returns the state an outcome ends in.
func TerminalState(o domain.TicketOutcome) State {
	return State(o.Kind())
}
