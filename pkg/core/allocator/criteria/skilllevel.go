package criteria

import (
	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

// DefaultSkillLevelThreshold is the minimum skill level scale a candidate must reach
const DefaultSkillLevelThreshold = 0.4

// SkillLevelCriterion scores the facilitator's declared tier for the session's module.
//
// Validity:
//   - Returns false if the facilitator declared no interest in the module
//
// Score:
//   - The tier's fixed scale (no_interest 0, has_some_skill 0.5, has_run_before 0.8, proficient 1.0)
//   - 0 if no tier was declared, which the threshold then rejects
type SkillLevelCriterion struct {
	weight    float64
	threshold float64
}

// NewSkillLevelCriterion creates a new SkillLevelCriterion with the given weight and threshold
func NewSkillLevelCriterion(weight, threshold float64) *SkillLevelCriterion {
	return &SkillLevelCriterion{weight: weight, threshold: threshold}
}

func (c *SkillLevelCriterion) Name() string {
	return allocator.CriterionSkillLevel
}

func (c *SkillLevelCriterion) IsSessionValid(state *allocator.RunState, facilitator *allocator.FacilitatorState, session *allocator.SessionState, role model.Role) bool {
	level, declared := facilitator.Facilitator.SkillFor(session.Session.ModuleID)
	return !declared || level != model.SkillNoInterest
}

func (c *SkillLevelCriterion) CalculateScore(state *allocator.RunState, facilitator *allocator.FacilitatorState, session *allocator.SessionState, role model.Role) float64 {
	level, declared := facilitator.Facilitator.SkillFor(session.Session.ModuleID)
	if !declared {
		return 0
	}
	return level.Scale()
}

func (c *SkillLevelCriterion) Weight() float64 {
	return c.weight
}

func (c *SkillLevelCriterion) Threshold() float64 {
	return c.threshold
}
