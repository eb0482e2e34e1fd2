package criteria

import (
	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

// DefaultSkillMatchThreshold is the minimum skill match ratio a candidate must reach
const DefaultSkillMatchThreshold = 0.3

// SkillMatchCriterion scores how many of the session's required skill tags the
// facilitator holds.
//
// Score:
//   - The fraction of required tags held
//   - 1.0 if the session declares no required skills
//
// Threshold:
//   - Candidates below the threshold are rejected regardless of their weighted score
type SkillMatchCriterion struct {
	weight    float64
	threshold float64
}

// NewSkillMatchCriterion creates a new SkillMatchCriterion with the given weight and threshold
func NewSkillMatchCriterion(weight, threshold float64) *SkillMatchCriterion {
	return &SkillMatchCriterion{weight: weight, threshold: threshold}
}

func (c *SkillMatchCriterion) Name() string {
	return allocator.CriterionSkillMatch
}

func (c *SkillMatchCriterion) IsSessionValid(state *allocator.RunState, facilitator *allocator.FacilitatorState, session *allocator.SessionState, role model.Role) bool {
	return true
}

func (c *SkillMatchCriterion) CalculateScore(state *allocator.RunState, facilitator *allocator.FacilitatorState, session *allocator.SessionState, role model.Role) float64 {
	required := session.Session.RequiredSkills
	if len(required) == 0 {
		return 1.0
	}

	held := 0
	for _, tag := range required {
		if facilitator.Facilitator.HasSkillTag(tag) {
			held++
		}
	}
	return float64(held) / float64(len(required))
}

func (c *SkillMatchCriterion) Weight() float64 {
	return c.weight
}

func (c *SkillMatchCriterion) Threshold() float64 {
	return c.threshold
}
