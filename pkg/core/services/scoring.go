package services

import (
	"github.com/jakechorley/facilitator-allocator/internal/config"
	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator"
	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator/criteria"
)

// BuildPolicy converts the scoring config into a criteria policy. Omitted values
// keep their defaults.
func BuildPolicy(scoring config.Scoring) criteria.Policy {
	policy := criteria.DefaultPolicy()

	if w := scoring.Weights; w != nil {
		policy.Weights = criteria.Weights{
			Availability:     w.Availability,
			SkillMatch:       w.SkillMatch,
			SkillLevel:       w.SkillLevel,
			Preference:       w.Preference,
			Experience:       w.Experience,
			WorkloadFairness: w.WorkloadFairness,
		}
	}
	if t := scoring.Thresholds.SkillMatch; t != nil {
		policy.Thresholds.SkillMatch = *t
	}
	if t := scoring.Thresholds.SkillLevel; t != nil {
		policy.Thresholds.SkillLevel = *t
	}
	if scoring.ExperienceCap > 0 {
		policy.ExperienceCap = scoring.ExperienceCap
	}
	policy.EnforceMaxHours = scoring.EnforceMaxHours

	return policy
}

// BuildSelection converts the scoring config into a selection policy
func BuildSelection(scoring config.Scoring) allocator.SelectionPolicy {
	selection := allocator.DefaultSelectionPolicy()

	if scoring.TopFraction != nil {
		selection.TopFraction = *scoring.TopFraction
	}
	if len(scoring.TieBreakOrder) > 0 {
		order := make([]allocator.TieBreakKey, len(scoring.TieBreakOrder))
		for i, key := range scoring.TieBreakOrder {
			order[i] = allocator.TieBreakKey(key)
		}
		selection.TieBreakOrder = order
	}

	return selection
}
