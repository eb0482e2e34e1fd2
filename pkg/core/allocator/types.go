package allocator

import (
	"fmt"
	"slices"

	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

// RunState is the mutable state of a single allocation run.
// It is owned by exactly one run and must not be shared between runs.
type RunState struct {
	// Facilitators considered in this run, sorted by ID
	Facilitators []*FacilitatorState

	// Sessions being staffed, in priority order
	Sessions []*SessionState

	// Assignments committed by this run, in commit order
	Assignments []CommittedAssignment

	// Preloaded are assignments that existed before the run started (read-only)
	Preloaded []model.Assignment

	facilitatorsByID map[string]*FacilitatorState
	sessionsByID     map[string]*SessionState
}

// Facilitator returns the facilitator state for id, or nil
func (rs *RunState) Facilitator(id string) *FacilitatorState {
	return rs.facilitatorsByID[id]
}

// Session returns the session state for id, or nil
func (rs *RunState) Session(id string) *SessionState {
	return rs.sessionsByID[id]
}

// AssignedHoursRange returns the minimum and maximum assigned hours across
// every facilitator in the run
func (rs *RunState) AssignedHoursRange() (lowest, highest float64) {
	for i, f := range rs.Facilitators {
		if i == 0 || f.AssignedHours < lowest {
			lowest = f.AssignedHours
		}
		if i == 0 || f.AssignedHours > highest {
			highest = f.AssignedHours
		}
	}
	return lowest, highest
}

// ScheduledSession is a session window held by a facilitator
type ScheduledSession struct {
	SessionID string
	Window    model.TimeWindow
}

// FacilitatorState tracks one facilitator through a run
type FacilitatorState struct {
	Facilitator model.Facilitator

	// Blocked is the facilitator's unavailability, expanded over the run horizon
	Blocked []model.BlockedDates

	// Schedule holds every session window committed to this facilitator
	// (preloaded and allocated in this run)
	Schedule []ScheduledSession

	// AssignedHours is the running tally of hours in Schedule
	AssignedHours float64
}

// ID returns the facilitator ID
func (fs *FacilitatorState) ID() string {
	return fs.Facilitator.ID
}

// IsUnavailableFor returns true if any unavailability record intersects the session
func (fs *FacilitatorState) IsUnavailableFor(session *model.Session) bool {
	for i := range fs.Blocked {
		if fs.Blocked[i].Blocks(session) {
			return true
		}
	}
	return false
}

// OverlapsSchedule returns true if the window overlaps any committed session
func (fs *FacilitatorState) OverlapsSchedule(window model.TimeWindow) bool {
	for _, scheduled := range fs.Schedule {
		if scheduled.Window.Overlaps(window) {
			return true
		}
	}
	return false
}

// IsScheduledFor returns true if the facilitator already holds the session
func (fs *FacilitatorState) IsScheduledFor(sessionID string) bool {
	return slices.ContainsFunc(fs.Schedule, func(s ScheduledSession) bool {
		return s.SessionID == sessionID
	})
}

// SessionState tracks one session's staffing through a run
type SessionState struct {
	Session model.Session

	// Index in RunState.Sessions (priority order)
	Index int

	// Leads and Supports are the facilitator IDs filling each role
	Leads    []string
	Supports []string

	// Closed sessions are skipped by the allocator
	Closed bool
}

// ID returns the session ID
func (ss *SessionState) ID() string {
	return ss.Session.ID
}

// Filled returns how many facilitators hold the role
func (ss *SessionState) Filled(role model.Role) int {
	switch role {
	case model.RoleLead:
		return len(ss.Leads)
	case model.RoleSupport:
		return len(ss.Supports)
	}
	return 0
}

// RemainingSlots returns how many more facilitators the role needs
func (ss *SessionState) RemainingSlots(role model.Role) int {
	return max(ss.Session.Required(role)-ss.Filled(role), 0)
}

// IsRoleFull returns true if the role quota is met
func (ss *SessionState) IsRoleFull(role model.Role) bool {
	return ss.RemainingSlots(role) == 0
}

// IsComplete returns true if both role quotas are met
func (ss *SessionState) IsComplete() bool {
	return ss.IsRoleFull(model.RoleLead) && ss.IsRoleFull(model.RoleSupport)
}

// HasFacilitator returns true if the facilitator holds any role on the session
func (ss *SessionState) HasFacilitator(facilitatorID string) bool {
	return slices.Contains(ss.Leads, facilitatorID) || slices.Contains(ss.Supports, facilitatorID)
}

func (ss *SessionState) addFacilitator(facilitatorID string, role model.Role) {
	switch role {
	case model.RoleLead:
		ss.Leads = append(ss.Leads, facilitatorID)
	case model.RoleSupport:
		ss.Supports = append(ss.Supports, facilitatorID)
	}
}

// CommittedAssignment is an assignment created by this run, with the score that won it
type CommittedAssignment struct {
	SessionID     string
	FacilitatorID string
	Role          model.Role
	Score         ScoreBreakdown
}

// Assignment converts to a model.Assignment without an ID
func (ca CommittedAssignment) Assignment() model.Assignment {
	return model.Assignment{
		SessionID:     ca.SessionID,
		FacilitatorID: ca.FacilitatorID,
		Role:          ca.Role,
	}
}

// UnstaffedSlot records a role slot no feasible facilitator could fill
type UnstaffedSlot struct {
	SessionID string
	Role      model.Role
	Reason    string
}

// Err describes the slot as an error matching model.ErrInfeasibleSlot
func (u UnstaffedSlot) Err() error {
	return fmt.Errorf("session %s %s slot: %s: %w", u.SessionID, u.Role, u.Reason, model.ErrInfeasibleSlot)
}

// ReasonNoFeasibleFacilitator is the reason recorded when every candidate was rejected
const ReasonNoFeasibleFacilitator = "no feasible facilitator"
