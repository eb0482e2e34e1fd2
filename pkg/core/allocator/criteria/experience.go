package criteria

import (
	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

// DefaultExperienceCap is the historical assignment count at which experience saturates
const DefaultExperienceCap = 50

// ExperienceCriterion rewards facilitators with more historical assignments.
//
// Score:
//   - min(count / cap, 1.0)
type ExperienceCriterion struct {
	weight float64
	cap    int
}

// NewExperienceCriterion creates a new ExperienceCriterion. A cap of 0 or less uses DefaultExperienceCap.
func NewExperienceCriterion(weight float64, cap int) *ExperienceCriterion {
	if cap <= 0 {
		cap = DefaultExperienceCap
	}
	return &ExperienceCriterion{weight: weight, cap: cap}
}

func (c *ExperienceCriterion) Name() string {
	return allocator.CriterionExperience
}

func (c *ExperienceCriterion) IsSessionValid(state *allocator.RunState, facilitator *allocator.FacilitatorState, session *allocator.SessionState, role model.Role) bool {
	return true
}

func (c *ExperienceCriterion) CalculateScore(state *allocator.RunState, facilitator *allocator.FacilitatorState, session *allocator.SessionState, role model.Role) float64 {
	count := facilitator.Facilitator.HistoricalAssignmentCount
	if count <= 0 {
		return 0
	}
	return min(float64(count)/float64(c.cap), 1.0)
}

func (c *ExperienceCriterion) Weight() float64 {
	return c.weight
}

func (c *ExperienceCriterion) Threshold() float64 {
	return 0
}
