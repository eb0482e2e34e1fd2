package criteria

import (
	"slices"

	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

const (
	preferenceBaseline       = 0.5
	preferenceTimeOfDayBonus = 0.25
	preferenceTypeBonus      = 0.25
)

// PreferenceCriterion matches the facilitator's declared preferences against the session.
//
// Score:
//   - Starts at a neutral 0.5
//   - +0.25 if the session starts in a preferred time of day
//   - +0.25 if the session type is a preferred type
type PreferenceCriterion struct {
	weight float64
}

// NewPreferenceCriterion creates a new PreferenceCriterion with the given weight
func NewPreferenceCriterion(weight float64) *PreferenceCriterion {
	return &PreferenceCriterion{weight: weight}
}

func (c *PreferenceCriterion) Name() string {
	return allocator.CriterionPreference
}

func (c *PreferenceCriterion) IsSessionValid(state *allocator.RunState, facilitator *allocator.FacilitatorState, session *allocator.SessionState, role model.Role) bool {
	return true
}

func (c *PreferenceCriterion) CalculateScore(state *allocator.RunState, facilitator *allocator.FacilitatorState, session *allocator.SessionState, role model.Role) float64 {
	prefs := facilitator.Facilitator.Preferences
	score := preferenceBaseline

	if slices.Contains(prefs.TimesOfDay, model.TimeOfDayOf(session.Session.Start)) {
		score += preferenceTimeOfDayBonus
	}
	if session.Session.SessionType != "" && slices.Contains(prefs.SessionTypes, session.Session.SessionType) {
		score += preferenceTypeBonus
	}

	return min(score, 1.0)
}

func (c *PreferenceCriterion) Weight() float64 {
	return c.weight
}

func (c *PreferenceCriterion) Threshold() float64 {
	return 0
}
