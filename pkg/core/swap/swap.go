package swap

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jakechorley/facilitator-allocator/pkg/core/conflicts"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

// Proposal is a facilitator's request to exchange one of their assignments for
// another facilitator's assignment
type Proposal struct {
	// ID is assigned by the caller
	ID string

	Actor     Actor
	Requester model.Assignment
	Target    model.Assignment

	RequesterSession model.Session
	TargetSession    model.Session

	// Existing swap requests referencing either assignment
	Existing []model.SwapRequest

	Now time.Time
}

// Propose validates a proposal and returns the new request in facilitator_pending
func Propose(p Proposal) (model.SwapRequest, error) {
	reject := func(format string, args ...any) (model.SwapRequest, error) {
		return model.SwapRequest{}, &model.StateConflictError{SwapRequestID: p.ID, Reason: fmt.Sprintf(format, args...)}
	}

	if p.Actor.Kind != ActorFacilitator || p.Actor.ID != p.Requester.FacilitatorID {
		return reject("only the facilitator holding assignment %s may propose a swap", p.Requester.ID)
	}
	if p.Requester.ID == p.Target.ID {
		return reject("cannot swap an assignment with itself")
	}
	if p.Requester.FacilitatorID == p.Target.FacilitatorID {
		return reject("both assignments belong to facilitator %s", p.Requester.FacilitatorID)
	}
	if p.RequesterSession.ID != p.Requester.SessionID || p.TargetSession.ID != p.Target.SessionID {
		return reject("sessions do not match the assignments")
	}
	if !p.RequesterSession.Start.After(p.Now) {
		return reject("session %s has already started", p.RequesterSession.ID)
	}
	if !p.TargetSession.Start.After(p.Now) {
		return reject("session %s has already started", p.TargetSession.ID)
	}
	for _, existing := range p.Existing {
		if existing.Status.IsTerminal() {
			continue
		}
		if existing.References(p.Requester.ID) || existing.References(p.Target.ID) {
			return reject("swap request %s is already active for one of these assignments", existing.ID)
		}
	}

	return model.SwapRequest{
		ID:                    p.ID,
		RequesterAssignmentID: p.Requester.ID,
		TargetAssignmentID:    p.Target.ID,
		Status:                model.SwapFacilitatorPending,
		RequestedBy:           p.Actor.ID,
		CreatedAt:             p.Now,
	}, nil
}

// Decision is an action taken on an existing request
type Decision struct {
	Action Action
	Actor  Actor

	// Reason is recorded on decline and reject
	Reason string
	Now    time.Time
}

// Parties is the state of the two assignments the request references
type Parties struct {
	Requester model.Assignment
	Target    model.Assignment

	RequesterSession model.Session
	TargetSession    model.Session

	// Schedule is every assignment held by either facilitator, including
	// Requester and Target. Used to guard approval.
	Schedule []model.Assignment

	// Detector checks the swapped schedule. Required for approval.
	Detector *conflicts.Detector
}

// Instruction is the side effect of an approval: each assignment takes the
// other's facilitator
type Instruction struct {
	RequesterAssignmentID string
	TargetAssignmentID    string

	// NewRequesterFacilitatorID is the facilitator who takes the requester's assignment
	NewRequesterFacilitatorID string

	// NewTargetFacilitatorID is the facilitator who takes the target assignment
	NewTargetFacilitatorID string
}

// Apply rewrites the facilitator of any assignment the instruction names
func (i Instruction) Apply(assignments []model.Assignment) []model.Assignment {
	result := make([]model.Assignment, len(assignments))
	for idx, a := range assignments {
		switch a.ID {
		case i.RequesterAssignmentID:
			a.FacilitatorID = i.NewRequesterFacilitatorID
			a.IsConfirmed = false
		case i.TargetAssignmentID:
			a.FacilitatorID = i.NewTargetFacilitatorID
			a.IsConfirmed = false
		}
		result[idx] = a
	}
	return result
}

// Result is the outcome of an accepted transition
type Result struct {
	Request model.SwapRequest

	// Instruction is set only when the request was approved
	Instruction *Instruction
}

// Transition applies a decision to a request. On any error the returned Result is
// empty and nothing has changed; errors are *model.StateConflictError.
func Transition(request model.SwapRequest, decision Decision, parties Parties) (Result, error) {
	reject := func(format string, args ...any) (Result, error) {
		return Result{}, &model.StateConflictError{
			SwapRequestID: request.ID,
			Status:        request.Status,
			Reason:        fmt.Sprintf(format, args...),
		}
	}

	next, err := NextStatus(request.Status, decision.Action)
	if err != nil {
		var conflict *model.StateConflictError
		if errors.As(err, &conflict) {
			conflict.SwapRequestID = request.ID
		}
		return Result{}, err
	}

	if parties.Requester.ID != request.RequesterAssignmentID || parties.Target.ID != request.TargetAssignmentID {
		return reject("assignments do not match the request")
	}

	updated := request
	updated.Status = next
	now := decision.Now

	switch decision.Action {
	case ActionConfirm, ActionDecline:
		if decision.Actor.Kind != ActorFacilitator || decision.Actor.ID != parties.Target.FacilitatorID {
			return reject("only facilitator %s may %s this request", parties.Target.FacilitatorID, decision.Action)
		}
		if decision.Action == ActionConfirm {
			updated.FacilitatorConfirmed = true
			updated.FacilitatorConfirmedAt = &now
		} else {
			updated.FacilitatorDeclineReason = decision.Reason
		}
		return Result{Request: updated}, nil

	case ActionReject:
		if !decision.Actor.IsReviewer() {
			return reject("only a coordinator may reject this request")
		}
		updated.CoordinatorDeclineReason = decision.Reason
		updated.ReviewedAt = &now
		updated.ReviewedBy = decision.Actor.ID
		return Result{Request: updated}, nil

	case ActionApprove:
		if !decision.Actor.IsReviewer() {
			return reject("only a coordinator may approve this request")
		}
		for _, session := range []model.Session{parties.RequesterSession, parties.TargetSession} {
			if !session.Start.After(now) {
				return reject("session %s has already started", session.ID)
			}
		}
		if parties.Detector == nil {
			return reject("cannot approve without checking the swapped schedule for conflicts")
		}

		instruction := Instruction{
			RequesterAssignmentID:     parties.Requester.ID,
			TargetAssignmentID:        parties.Target.ID,
			NewRequesterFacilitatorID: parties.Target.FacilitatorID,
			NewTargetFacilitatorID:    parties.Requester.FacilitatorID,
		}
		if found := ApprovalConflicts(instruction, parties); len(found) > 0 {
			descriptions := make([]string, len(found))
			for i, c := range found {
				descriptions[i] = c.Description
			}
			return reject("approval would create a conflict: %s", strings.Join(descriptions, "; "))
		}

		updated.ReviewedAt = &now
		updated.ReviewedBy = decision.Actor.ID
		return Result{Request: updated, Instruction: &instruction}, nil
	}

	return reject("unsupported action %s", decision.Action)
}

// ApprovalConflicts simulates the exchange and returns every conflict that
// involves either swapped assignment. parties.Detector must be set.
func ApprovalConflicts(instruction Instruction, parties Parties) []conflicts.Conflict {
	schedule := slices.Clone(parties.Schedule)
	if !containsAssignment(schedule, parties.Requester.ID) {
		schedule = append(schedule, parties.Requester)
	}
	if !containsAssignment(schedule, parties.Target.ID) {
		schedule = append(schedule, parties.Target)
	}
	swapped := instruction.Apply(schedule)

	var found []conflicts.Conflict
	for _, c := range parties.Detector.Detect(swapped) {
		if c.Involves(instruction.RequesterAssignmentID) || c.Involves(instruction.TargetAssignmentID) {
			found = append(found, c)
		}
	}
	return found
}

func containsAssignment(assignments []model.Assignment, id string) bool {
	return slices.ContainsFunc(assignments, func(a model.Assignment) bool { return a.ID == id })
}
