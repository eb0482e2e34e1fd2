package criteria

import (
	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

// AvailabilityCriterion rewards candidates that are free for the session.
//
// Validity:
//   - Returns false if any of the facilitator's unavailability intersects the session
//
// Score:
//   - 1.0 for every candidate that reaches scoring (feasibility has already been checked)
type AvailabilityCriterion struct {
	weight float64
}

// NewAvailabilityCriterion creates a new AvailabilityCriterion with the given weight
func NewAvailabilityCriterion(weight float64) *AvailabilityCriterion {
	return &AvailabilityCriterion{weight: weight}
}

func (c *AvailabilityCriterion) Name() string {
	return allocator.CriterionAvailability
}

func (c *AvailabilityCriterion) IsSessionValid(state *allocator.RunState, facilitator *allocator.FacilitatorState, session *allocator.SessionState, role model.Role) bool {
	return !facilitator.IsUnavailableFor(&session.Session)
}

func (c *AvailabilityCriterion) CalculateScore(state *allocator.RunState, facilitator *allocator.FacilitatorState, session *allocator.SessionState, role model.Role) float64 {
	return 1.0
}

func (c *AvailabilityCriterion) Weight() float64 {
	return c.weight
}

func (c *AvailabilityCriterion) Threshold() float64 {
	return 0
}
