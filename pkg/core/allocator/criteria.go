package allocator

import "github.com/jakechorley/facilitator-allocator/pkg/core/model"

// Names of the built-in sub-scores. The tie-break comparator looks up
// skill match and skill level by these names.
const (
	CriterionAvailability     = "availability"
	CriterionSkillMatch       = "skill_match"
	CriterionSkillLevel       = "skill_level"
	CriterionPreference       = "preference"
	CriterionExperience       = "experience"
	CriterionWorkloadFairness = "workload_fairness"
	CriterionMaxHours         = "max_hours"
)

// Criterion defines one weighted sub-score of the suitability score
type Criterion interface {
	// Name returns the sub-score identifier
	Name() string

	// IsSessionValid vetoes a candidate that would violate a hard constraint owned by
	// this criterion. If ANY criterion returns false the candidate is infeasible.
	IsSessionValid(state *RunState, facilitator *FacilitatorState, session *SessionState, role model.Role) bool

	// CalculateScore returns the sub-score in [0,1] for a feasible candidate
	CalculateScore(state *RunState, facilitator *FacilitatorState, session *SessionState, role model.Role) float64

	// Weight is this sub-score's share of the final score. Weights of all criteria sum to 1.
	Weight() float64

	// Threshold is the minimum sub-score a candidate must reach. Below it the final
	// score is forced to 0. Return 0 for no threshold.
	Threshold() float64
}
