// Package review governs the per-candidate review workflow between
// extraction and commit: detected -> edited -> confirmed | rejected.
//
// The state machine is a plain value plus a transition function so the
// workflow is testable without any presentation layer. Sessions group the
// candidates of one ingested report; they live in memory only — the durable
// pending-report queue is the sole thing that survives a restart.
package review

import (
	"errors"
	"fmt"

	"nestlog-reconcile/internal/domain"
)

// Action is a user-driven review operation on one candidate.
type Action string

const (
	ActionEdit    Action = "edit"
	ActionConfirm Action = "confirm"
	ActionReject  Action = "reject"
)

var ErrInvalidTransition = errors.New("invalid review transition")

// Transition returns the state an event enters when action is applied.
// Allowed moves: detected/edited -> edited on any field mutation;
// detected/edited -> confirmed or rejected; confirmed <-> rejected (the user
// may change their mind until commit). Editing a resolved event is invalid.
func Transition(current domain.ReviewState, action Action) (domain.ReviewState, error) {
	switch action {
	case ActionEdit:
		if current == domain.StateDetected || current == domain.StateEdited {
			return domain.StateEdited, nil
		}
	case ActionConfirm:
		if current == domain.StateDetected || current == domain.StateEdited ||
			current == domain.StateConfirmed || current == domain.StateRejected {
			return domain.StateConfirmed, nil
		}
	case ActionReject:
		if current == domain.StateDetected || current == domain.StateEdited ||
			current == domain.StateConfirmed || current == domain.StateRejected {
			return domain.StateRejected, nil
		}
	}
	return current, fmt.Errorf("%w: cannot %s a %s event", ErrInvalidTransition, action, current)
}
