package allocator

import "github.com/jakechorley/facilitator-allocator/pkg/core/model"

// IsFeasible checks if a facilitator can take a role on a session.
//
// Returns false if:
//   - The session is closed
//   - The facilitator declared no interest in the session's module
//   - Any of the facilitator's unavailability intersects the session
//   - The facilitator already holds a session overlapping this one
//   - The role is already filled, or the facilitator already holds a role on the session
//   - Any criterion's IsSessionValid hook returns false
//
// It has no side effects.
func IsFeasible(state *RunState, facilitator *FacilitatorState, session *SessionState, role model.Role, criteria []Criterion) bool {
	if session.Closed {
		return false
	}

	if level, declared := facilitator.Facilitator.SkillFor(session.Session.ModuleID); declared && level == model.SkillNoInterest {
		return false
	}

	if facilitator.IsUnavailableFor(&session.Session) {
		return false
	}

	if facilitator.OverlapsSchedule(session.Session.Window()) {
		return false
	}

	if session.IsRoleFull(role) || session.HasFacilitator(facilitator.ID()) {
		return false
	}

	for _, criterion := range criteria {
		if !criterion.IsSessionValid(state, facilitator, session, role) {
			return false
		}
	}

	return true
}
