package criteria

import (
	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

// WorkloadFairnessCriterion favours facilitators with fewer assigned hours.
//
// Score:
//   - 1.0 for everyone when all facilitators in the run hold the same hours
//   - Otherwise 1 - (hours - lowest) / (highest - lowest), so the least loaded
//     facilitator scores 1.0 and the most loaded scores 0
//
// Hours include preloaded assignments and every commitment made earlier in the run.
type WorkloadFairnessCriterion struct {
	weight float64
}

// NewWorkloadFairnessCriterion creates a new WorkloadFairnessCriterion with the given weight
func NewWorkloadFairnessCriterion(weight float64) *WorkloadFairnessCriterion {
	return &WorkloadFairnessCriterion{weight: weight}
}

func (c *WorkloadFairnessCriterion) Name() string {
	return allocator.CriterionWorkloadFairness
}

func (c *WorkloadFairnessCriterion) IsSessionValid(state *allocator.RunState, facilitator *allocator.FacilitatorState, session *allocator.SessionState, role model.Role) bool {
	return true
}

func (c *WorkloadFairnessCriterion) CalculateScore(state *allocator.RunState, facilitator *allocator.FacilitatorState, session *allocator.SessionState, role model.Role) float64 {
	lowest, highest := state.AssignedHoursRange()
	spread := highest - lowest
	if spread <= 1e-9 {
		return 1.0
	}
	return 1 - (facilitator.AssignedHours-lowest)/spread
}

func (c *WorkloadFairnessCriterion) Weight() float64 {
	return c.weight
}

func (c *WorkloadFairnessCriterion) Threshold() float64 {
	return 0
}
