package criteria

import (
	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

// MaxHoursCriterion keeps facilitators inside their workload band.
//
// Validity:
//   - Returns false if the session would take the facilitator above max_hours
//   - Facilitators with max_hours of 0 are unbounded
//
// Score:
//   - The share of max_hours still free before this session, or 1.0 if unbounded
type MaxHoursCriterion struct {
	weight float64
}

// NewMaxHoursCriterion creates a new MaxHoursCriterion with the given weight
func NewMaxHoursCriterion(weight float64) *MaxHoursCriterion {
	return &MaxHoursCriterion{weight: weight}
}

func (c *MaxHoursCriterion) Name() string {
	return allocator.CriterionMaxHours
}

func (c *MaxHoursCriterion) IsSessionValid(state *allocator.RunState, facilitator *allocator.FacilitatorState, session *allocator.SessionState, role model.Role) bool {
	maxHours := facilitator.Facilitator.MaxHours
	if maxHours <= 0 {
		return true
	}
	return facilitator.AssignedHours+session.Session.Hours() <= float64(maxHours)+1e-9
}

func (c *MaxHoursCriterion) CalculateScore(state *allocator.RunState, facilitator *allocator.FacilitatorState, session *allocator.SessionState, role model.Role) float64 {
	maxHours := facilitator.Facilitator.MaxHours
	if maxHours <= 0 {
		return 1.0
	}
	return 1 - facilitator.AssignedHours/float64(maxHours)
}

func (c *MaxHoursCriterion) Weight() float64 {
	return c.weight
}

func (c *MaxHoursCriterion) Threshold() float64 {
	return 0
}
