package criteria

import (
	"fmt"
	"math"

	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator"
)

// Weights is the share of the final score given to each sub-score. The six
// scored weights must sum to 1.
type Weights struct {
	Availability     float64
	SkillMatch       float64
	SkillLevel       float64
	Preference       float64
	Experience       float64
	WorkloadFairness float64
}

// Sum returns the total of all weights
func (w Weights) Sum() float64 {
	return w.Availability + w.SkillMatch + w.SkillLevel + w.Preference + w.Experience + w.WorkloadFairness
}

// Thresholds are the minimum sub-scores a candidate must reach
type Thresholds struct {
	SkillMatch float64
	SkillLevel float64
}

// Policy is the complete scoring policy of a run
type Policy struct {
	Weights    Weights
	Thresholds Thresholds

	// ExperienceCap is the historical count at which experience saturates
	ExperienceCap int

	// EnforceMaxHours adds the max_hours hard constraint
	EnforceMaxHours bool
}

// DefaultPolicy returns the standard weights and thresholds
func DefaultPolicy() Policy {
	return Policy{
		Weights: Weights{
			Availability:     0.30,
			SkillMatch:       0.25,
			SkillLevel:       0.20,
			Preference:       0.15,
			Experience:       0.05,
			WorkloadFairness: 0.05,
		},
		Thresholds: Thresholds{
			SkillMatch: DefaultSkillMatchThreshold,
			SkillLevel: DefaultSkillLevelThreshold,
		},
		ExperienceCap: DefaultExperienceCap,
	}
}

// Validate checks the weights sum to 1 and thresholds are in range
func (p Policy) Validate() error {
	if sum := p.Weights.Sum(); math.Abs(sum-1) > 1e-6 {
		return fmt.Errorf("scoring weights must sum to 1, got %.6f", sum)
	}
	thresholds := []struct {
		name  string
		value float64
	}{
		{"skillMatch", p.Thresholds.SkillMatch},
		{"skillLevel", p.Thresholds.SkillLevel},
	}
	for _, t := range thresholds {
		if t.value < 0 || t.value > 1 {
			return fmt.Errorf("threshold %s must be in [0,1], got %.2f", t.name, t.value)
		}
	}
	return nil
}

// Build creates the criteria for the policy
func (p Policy) Build() []allocator.Criterion {
	criteria := []allocator.Criterion{
		NewAvailabilityCriterion(p.Weights.Availability),
		NewSkillMatchCriterion(p.Weights.SkillMatch, p.Thresholds.SkillMatch),
		NewSkillLevelCriterion(p.Weights.SkillLevel, p.Thresholds.SkillLevel),
		NewPreferenceCriterion(p.Weights.Preference),
		NewExperienceCriterion(p.Weights.Experience, p.ExperienceCap),
		NewWorkloadFairnessCriterion(p.Weights.WorkloadFairness),
	}
	if p.EnforceMaxHours {
		criteria = append(criteria, NewMaxHoursCriterion(0))
	}
	return criteria
}
