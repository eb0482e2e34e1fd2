package allocator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(id string, total, skillMatch, skillLevel, hours float64) Candidate {
	return Candidate{
		Facilitator: &FacilitatorState{Facilitator: newFacilitator(id, 0), AssignedHours: hours},
		Score: ScoreBreakdown{
			Total:    total,
			Feasible: total > 0,
			SubScores: map[string]float64{
				CriterionSkillMatch: skillMatch,
				CriterionSkillLevel: skillLevel,
			},
		},
	}
}

func ids(candidates []Candidate) []string {
	result := make([]string, len(candidates))
	for i, c := range candidates {
		result[i] = c.Facilitator.ID()
	}
	return result
}

func TestRankCandidates_DropsZeroScoresAndOrders(t *testing.T) {
	candidates := []Candidate{
		candidate("a", 0.4, 1, 1, 0),
		candidate("b", 0, 1, 1, 0),
		candidate("c", 0.9, 1, 1, 0),
		candidate("d", 0.6, 1, 1, 0),
	}

	ranked := RankCandidates(candidates, SelectionPolicy{})
	assert.Equal(t, []string{"c", "d", "a"}, ids(ranked))
}

func TestRankCandidates_TiesUseComparator(t *testing.T) {
	candidates := []Candidate{
		candidate("z", 0.7, 0.5, 1.0, 0),
		candidate("y", 0.7, 1.0, 0.5, 0),
		candidate("x", 0.7, 0.5, 1.0, 4),
		candidate("w", 0.7, 0.5, 1.0, 0),
	}

	ranked := RankCandidates(candidates, SelectionPolicy{})
	// y: best skill match; then w/z tie on hours so ID decides; x has more hours
	assert.Equal(t, []string{"y", "w", "z", "x"}, ids(ranked))
}

func TestSelectCandidate_NoCandidates(t *testing.T) {
	_, ok := SelectCandidate(nil, DefaultSelectionPolicy())
	assert.False(t, ok)

	_, ok = SelectCandidate([]Candidate{candidate("a", 0, 1, 1, 0)}, DefaultSelectionPolicy())
	assert.False(t, ok)
}

func TestSelectCandidate_TopFractionDisabledPicksHighestScore(t *testing.T) {
	candidates := []Candidate{
		candidate("a", 0.80, 0.5, 0.5, 0),
		candidate("b", 0.79, 1.0, 1.0, 0),
	}

	best, ok := SelectCandidate(candidates, SelectionPolicy{TopFraction: 0})
	require.True(t, ok)
	assert.Equal(t, "a", best.Facilitator.ID())
}

func TestSelectCandidate_TopQuartileThenTieBreak(t *testing.T) {
	candidates := []Candidate{
		candidate("a", 0.90, 0.5, 0.5, 0),
		candidate("b", 0.89, 1.0, 0.5, 0),
		candidate("c", 0.88, 1.0, 1.0, 0),
		candidate("d", 0.50, 1.0, 1.0, 0),
		candidate("e", 0.40, 1.0, 1.0, 0),
		candidate("f", 0.30, 1.0, 1.0, 0),
		candidate("g", 0.20, 1.0, 1.0, 0),
		candidate("h", 0.10, 1.0, 1.0, 0),
	}

	// ceil(8 * 0.25) = 2 keeps a and b; b has the better skill match
	best, ok := SelectCandidate(candidates, DefaultSelectionPolicy())
	require.True(t, ok)
	assert.Equal(t, "b", best.Facilitator.ID())
}

func TestSelectCandidate_SliceKeepsAtLeastOne(t *testing.T) {
	candidates := []Candidate{
		candidate("a", 0.9, 0.5, 0.5, 0),
		candidate("b", 0.5, 1.0, 1.0, 0),
	}

	best, ok := SelectCandidate(candidates, SelectionPolicy{TopFraction: 0.01})
	require.True(t, ok)
	assert.Equal(t, "a", best.Facilitator.ID())
}

func TestSelectCandidate_FullFractionIsPureTieBreak(t *testing.T) {
	candidates := []Candidate{
		candidate("a", 0.9, 0.5, 0.5, 0),
		candidate("b", 0.5, 0.5, 0.8, 0),
	}

	best, ok := SelectCandidate(candidates, SelectionPolicy{TopFraction: 1})
	require.True(t, ok)
	assert.Equal(t, "b", best.Facilitator.ID())
}

func TestSelectCandidate_CustomTieBreakOrder(t *testing.T) {
	candidates := []Candidate{
		candidate("a", 0.7, 1.0, 1.0, 6),
		candidate("b", 0.7, 0.5, 0.5, 2),
	}

	best, ok := SelectCandidate(candidates, SelectionPolicy{
		TopFraction:   1,
		TieBreakOrder: []TieBreakKey{TieBreakAssignedHours, TieBreakSkillMatch},
	})
	require.True(t, ok)
	assert.Equal(t, "b", best.Facilitator.ID())

	best, ok = SelectCandidate(candidates, SelectionPolicy{TopFraction: 1})
	require.True(t, ok)
	assert.Equal(t, "a", best.Facilitator.ID())
}

func TestSelectCandidate_FacilitatorIDIsFinalTieBreak(t *testing.T) {
	candidates := []Candidate{
		candidate("m", 0.7, 1.0, 1.0, 0),
		candidate("k", 0.7, 1.0, 1.0, 0),
	}

	best, ok := SelectCandidate(candidates, SelectionPolicy{
		TopFraction:   1,
		TieBreakOrder: []TieBreakKey{TieBreakSkillLevel},
	})
	require.True(t, ok)
	assert.Equal(t, "k", best.Facilitator.ID())
}
