package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/facilitator-allocator/internal/config"
	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator"
	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator/criteria"
)

func TestBuildPolicy_Defaults(t *testing.T) {
	policy := BuildPolicy(config.Scoring{})

	assert.Equal(t, criteria.DefaultPolicy(), policy)
	require.NoError(t, policy.Validate())
}

func TestBuildPolicy_Overrides(t *testing.T) {
	skillMatch := 0.5
	scoring := config.Scoring{
		Weights: &config.Weights{
			Availability:     0.2,
			SkillMatch:       0.2,
			SkillLevel:       0.2,
			Preference:       0.2,
			Experience:       0.1,
			WorkloadFairness: 0.1,
		},
		Thresholds:      config.Thresholds{SkillMatch: &skillMatch},
		ExperienceCap:   20,
		EnforceMaxHours: true,
	}

	policy := BuildPolicy(scoring)

	assert.Equal(t, 0.2, policy.Weights.Availability)
	assert.Equal(t, 0.1, policy.Weights.WorkloadFairness)
	assert.Equal(t, 0.5, policy.Thresholds.SkillMatch)
	assert.Equal(t, criteria.DefaultPolicy().Thresholds.SkillLevel, policy.Thresholds.SkillLevel, "Unset thresholds keep their default")
	assert.Equal(t, 20, policy.ExperienceCap)
	assert.True(t, policy.EnforceMaxHours)
	require.NoError(t, policy.Validate())
}

func TestBuildSelection(t *testing.T) {
	zero := 0.0

	tests := []struct {
		name    string
		scoring config.Scoring
		want    allocator.SelectionPolicy
	}{
		{
			name:    "defaults",
			scoring: config.Scoring{},
			want:    allocator.DefaultSelectionPolicy(),
		},
		{
			name:    "top score only",
			scoring: config.Scoring{TopFraction: &zero},
			want:    allocator.SelectionPolicy{TopFraction: 0, TieBreakOrder: allocator.DefaultTieBreakOrder},
		},
		{
			name:    "custom tie break",
			scoring: config.Scoring{TieBreakOrder: []string{"assigned_hours", "facilitator_id"}},
			want: allocator.SelectionPolicy{
				TopFraction:   allocator.DefaultTopFraction,
				TieBreakOrder: []allocator.TieBreakKey{allocator.TieBreakAssignedHours, allocator.TieBreakFacilitatorID},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildSelection(tt.scoring))
		})
	}
}
