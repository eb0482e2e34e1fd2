package allocator

import "github.com/jakechorley/facilitator-allocator/pkg/core/model"

// ScoreBreakdown is the suitability score of one candidate with its sub-scores
type ScoreBreakdown struct {
	// Total is the weighted score in [0,1]. It is 0 when the candidate is
	// infeasible or gated.
	Total float64

	Feasible bool

	// GatedBy names the first criterion whose threshold was not met
	GatedBy string

	// SubScores maps criterion name to its unweighted sub-score
	SubScores map[string]float64
}

// SubScore returns a named sub-score, or 0 if the criterion did not run
func (b ScoreBreakdown) SubScore(name string) float64 {
	return b.SubScores[name]
}

// IsGated returns true if a threshold forced the score to 0
func (b ScoreBreakdown) IsGated() bool {
	return b.GatedBy != ""
}

// Score computes the suitability of a facilitator for a role on a session.
//
// Feasibility is evaluated first; an infeasible candidate scores exactly 0 and no
// sub-scores are computed. Otherwise every criterion's sub-score is clamped to [0,1]
// and weighted. If any sub-score falls below its criterion's threshold the total is
// forced to 0.
func Score(state *RunState, facilitator *FacilitatorState, session *SessionState, role model.Role, criteria []Criterion) ScoreBreakdown {
	if !IsFeasible(state, facilitator, session, role, criteria) {
		return ScoreBreakdown{}
	}

	breakdown := ScoreBreakdown{
		Feasible:  true,
		SubScores: make(map[string]float64, len(criteria)),
	}

	total := 0.0
	for _, criterion := range criteria {
		value := clamp01(criterion.CalculateScore(state, facilitator, session, role))
		breakdown.SubScores[criterion.Name()] = value
		total += value * criterion.Weight()

		if threshold := criterion.Threshold(); threshold > 0 && value < threshold && breakdown.GatedBy == "" {
			breakdown.GatedBy = criterion.Name()
		}
	}

	if breakdown.IsGated() {
		return breakdown
	}

	breakdown.Total = clamp01(total)
	return breakdown
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
