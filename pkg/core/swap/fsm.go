// Package swap implements the two-step approval workflow for exchanging the
// facilitators of two assignments. Functions here never mutate their inputs:
// they return the updated request and, on approval, an explicit Instruction
// for the caller to apply.
package swap

import (
	"fmt"

	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

// Action is an event applied to a swap request
type Action string

const (
	ActionConfirm Action = "confirm"
	ActionDecline Action = "decline"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ActorKind is the capacity in which someone acts on a request
type ActorKind string

const (
	ActorFacilitator ActorKind = "facilitator"
	ActorCoordinator ActorKind = "coordinator"
	ActorAdmin       ActorKind = "admin"
)

// Actor identifies who is acting
type Actor struct {
	Kind ActorKind
	ID   string
}

// IsReviewer returns true for coordinators and admins
func (a Actor) IsReviewer() bool {
	return a.Kind == ActorCoordinator || a.Kind == ActorAdmin
}

// transitions is the complete table of allowed (state, action) pairs. Legacy
// statuses are mapped onto these states by SwapStatus.Canonical before lookup.
var transitions = map[model.SwapStatus]map[Action]model.SwapStatus{
	model.SwapFacilitatorPending: {
		ActionConfirm: model.SwapCoordinatorPending,
		ActionDecline: model.SwapFacilitatorDeclined,
	},
	model.SwapCoordinatorPending: {
		ActionApprove: model.SwapApproved,
		ActionReject:  model.SwapCoordinatorDeclined,
	},
}

// NextStatus looks up the transition table. Returns a *model.StateConflictError
// if the action is not allowed from the current status.
func NextStatus(current model.SwapStatus, action Action) (model.SwapStatus, error) {
	canonical := current.Canonical()
	if !canonical.IsValid() {
		return "", &model.StateConflictError{Status: current, Reason: fmt.Sprintf("unknown status %q", current)}
	}
	if canonical.IsTerminal() {
		return "", &model.StateConflictError{Status: current, Reason: fmt.Sprintf("cannot %s a request that is already %s", action, canonical)}
	}
	next, ok := transitions[canonical][action]
	if !ok {
		return "", &model.StateConflictError{Status: current, Reason: fmt.Sprintf("cannot %s a request in status %s", action, canonical)}
	}
	return next, nil
}

// Allowed returns the actions available from a status
func Allowed(status model.SwapStatus) []Action {
	var actions []Action
	for _, action := range []Action{ActionConfirm, ActionDecline, ActionApprove, ActionReject} {
		if _, ok := transitions[status.Canonical()][action]; ok {
			actions = append(actions, action)
		}
	}
	return actions
}
