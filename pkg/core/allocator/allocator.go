package allocator

import (
	"fmt"
	"strings"

	"github.com/jakechorley/facilitator-allocator/pkg/core/conflicts"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

// Allocator staffs sessions one role slot at a time with configurable criteria
type Allocator struct {
	criteria  []Criterion
	selection SelectionPolicy
	state     *RunState
}

// AllocationConfig contains everything a single allocation run needs
type AllocationConfig struct {
	// Criteria to apply during allocation (with their weights and thresholds)
	Criteria []Criterion

	// Facilitators eligible for assignment in this run
	Facilitators []model.Facilitator

	// Sessions needing staffing
	Sessions []model.Session

	// ContextSessions are sessions outside this run whose existing assignments still
	// occupy facilitator time (e.g. other units, or sessions already fully staffed)
	ContextSessions []model.Session

	// ExistingAssignments are already committed; they are preloaded before the loop
	ExistingAssignments []model.Assignment

	// Modules known to the caller. If set, module references are validated against it.
	Modules []model.Module

	// Overrides allow customising specific sessions
	Overrides []SessionOverride

	// Selection is the rank-and-slice policy
	Selection SelectionPolicy
}

// AllocationOutcome represents the result of an allocation run
type AllocationOutcome struct {
	// State is the final run state after allocation
	State *RunState

	// Assignments created by this run, in commit order
	Assignments []CommittedAssignment

	// Unstaffed holds one entry per role slot that could not be filled
	Unstaffed []UnstaffedSlot

	// Conflicts found by re-checking the committed schedule that this run
	// introduced. Conflicts among preloaded assignments alone are excluded.
	Conflicts []conflicts.Conflict

	// PreexistingConflicts are conflicts among the preloaded assignments. They
	// are reported only and do not affect Success.
	PreexistingConflicts []conflicts.Conflict

	// UnderloadedFacilitators are still below their min_hours after the run
	UnderloadedFacilitators []*FacilitatorState

	Metrics Metrics

	// Success is true when the run introduced no conflicts.
	// Unstaffed slots and preexisting conflicts do not affect it.
	Success bool
}

// IsComplete returns true if every role slot was filled
func (o *AllocationOutcome) IsComplete() bool {
	return len(o.Unstaffed) == 0
}

// Allocate validates the input and runs the greedy allocation loop.
//
// Sessions are processed in priority order. For each session the lead slots are
// filled first, then support. Every facilitator is scored for each slot and the
// winner under the selection policy is committed immediately, so later slots see
// the updated schedules and hour tallies. A slot without any positively-scored
// candidate is recorded as unstaffed and the run continues.
func Allocate(config AllocationConfig) (*AllocationOutcome, error) {
	if err := ValidateInput(config); err != nil {
		return nil, err
	}

	allocator, err := InitAllocation(config)
	if err != nil {
		return nil, err
	}

	unstaffed := []UnstaffedSlot{}

	// Main allocation loop
	for _, session := range allocator.state.Sessions {
		if session.Closed {
			continue
		}

		for _, role := range model.Roles {
			for session.RemainingSlots(role) > 0 {
				best, ok := allocator.findBestCandidate(session, role)
				if !ok {
					// State is unchanged, so every remaining slot of this role is unstaffed too
					for range session.RemainingSlots(role) {
						unstaffed = append(unstaffed, UnstaffedSlot{
							SessionID: session.ID(),
							Role:      role,
							Reason:    ReasonNoFeasibleFacilitator,
						})
					}
					break
				}
				allocator.commit(best, session, role)
			}
		}
	}

	return allocator.buildOutcome(config, unstaffed)
}

// InitAllocation builds an allocator with its run state. Input is assumed to be valid.
func InitAllocation(config AllocationConfig) (*Allocator, error) {
	state, err := InitRunState(config)
	if err != nil {
		return nil, err
	}
	return &Allocator{
		criteria:  config.Criteria,
		selection: config.Selection,
		state:     state,
	}, nil
}

// State returns the allocator's run state
func (a *Allocator) State() *RunState {
	return a.state
}

// findBestCandidate scores every facilitator for a role slot and applies the
// selection policy
func (a *Allocator) findBestCandidate(session *SessionState, role model.Role) (Candidate, bool) {
	candidates := make([]Candidate, 0, len(a.state.Facilitators))
	for _, facilitator := range a.state.Facilitators {
		breakdown := Score(a.state, facilitator, session, role, a.criteria)
		if breakdown.Total <= 0 {
			continue
		}
		candidates = append(candidates, Candidate{Facilitator: facilitator, Score: breakdown})
	}
	return SelectCandidate(candidates, a.selection)
}

// commit records the assignment and updates the facilitator's schedule and hours
func (a *Allocator) commit(candidate Candidate, session *SessionState, role model.Role) {
	facilitator := candidate.Facilitator

	session.addFacilitator(facilitator.ID(), role)
	facilitator.Schedule = append(facilitator.Schedule, ScheduledSession{
		SessionID: session.ID(),
		Window:    session.Session.Window(),
	})
	facilitator.AssignedHours += session.Session.Hours()

	a.state.Assignments = append(a.state.Assignments, CommittedAssignment{
		SessionID:     session.ID(),
		FacilitatorID: facilitator.ID(),
		Role:          role,
		Score:         candidate.Score,
	})
}

// buildOutcome creates the final allocation outcome report
func (a *Allocator) buildOutcome(config AllocationConfig, unstaffed []UnstaffedSlot) (*AllocationOutcome, error) {
	// Initialize with empty slices (not nil) for easier consumption
	outcome := &AllocationOutcome{
		State:                   a.state,
		Assignments:             a.state.Assignments,
		Unstaffed:               unstaffed,
		Conflicts:               []conflicts.Conflict{},
		PreexistingConflicts:    []conflicts.Conflict{},
		UnderloadedFacilitators: []*FacilitatorState{},
	}
	if outcome.Assignments == nil {
		outcome.Assignments = []CommittedAssignment{}
	}

	for _, facilitator := range a.state.Facilitators {
		if facilitator.AssignedHours < float64(facilitator.Facilitator.MinHours) {
			outcome.UnderloadedFacilitators = append(outcome.UnderloadedFacilitators, facilitator)
		}
	}

	// Re-check the whole committed schedule, including preloaded assignments that
	// may have bypassed allocation
	sessions := make([]model.Session, 0, len(config.Sessions)+len(config.ContextSessions))
	sessions = append(sessions, config.ContextSessions...)
	for _, s := range a.state.Sessions {
		sessions = append(sessions, s.Session)
	}
	detector, err := conflicts.NewDetector(sessions, config.Facilitators)
	if err != nil {
		return nil, fmt.Errorf("failed to build conflict detector: %w", err)
	}

	preexisting := map[string]bool{}
	for _, c := range detector.Detect(a.state.Preloaded) {
		preexisting[conflictKey(c)] = true
		outcome.PreexistingConflicts = append(outcome.PreexistingConflicts, c)
	}

	committed := make([]model.Assignment, 0, len(a.state.Preloaded)+len(a.state.Assignments))
	committed = append(committed, a.state.Preloaded...)
	for _, assignment := range a.state.Assignments {
		committed = append(committed, assignment.Assignment())
	}
	for _, c := range detector.Detect(committed) {
		if !preexisting[conflictKey(c)] {
			outcome.Conflicts = append(outcome.Conflicts, c)
		}
	}

	outcome.Metrics = CalculateMetrics(a.state)
	outcome.Success = len(outcome.Conflicts) == 0

	return outcome, nil
}

// conflictKey identifies a conflict by what it names. Created assignments have
// no ID yet so sessions identify them.
func conflictKey(c conflicts.Conflict) string {
	return strings.Join([]string{
		string(c.Kind),
		c.FacilitatorID,
		strings.Join(c.SessionIDs, ","),
		c.UnavailabilityID,
	}, "|")
}
