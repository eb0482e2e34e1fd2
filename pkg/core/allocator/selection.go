package allocator

import (
	"math"
	"sort"
)

// TieBreakKey names one field of the lexicographic tie-break comparator
type TieBreakKey string

const (
	// TieBreakSkillMatch prefers the higher skill match sub-score
	TieBreakSkillMatch TieBreakKey = "skill_match"
	// TieBreakSkillLevel prefers the higher skill level sub-score
	TieBreakSkillLevel TieBreakKey = "skill_level"
	// TieBreakAssignedHours prefers fewer hours already assigned
	TieBreakAssignedHours TieBreakKey = "assigned_hours"
	// TieBreakFacilitatorID prefers the lexically smaller ID; always applied last
	TieBreakFacilitatorID TieBreakKey = "facilitator_id"
)

// DefaultTieBreakOrder is the comparator field order used when none is configured
var DefaultTieBreakOrder = []TieBreakKey{
	TieBreakSkillMatch,
	TieBreakSkillLevel,
	TieBreakAssignedHours,
	TieBreakFacilitatorID,
}

// DefaultTopFraction restricts the final choice to the top quartile of candidates
const DefaultTopFraction = 0.25

// scoreEpsilon is the tolerance under which two scores are treated as tied
const scoreEpsilon = 1e-9

// SelectionPolicy controls how the winning candidate is chosen from the scored pool
type SelectionPolicy struct {
	// TopFraction, when in (0,1], keeps only the ceil(n*TopFraction) best-scoring
	// candidates and then picks among them by tie-break alone. 0 picks the top score.
	TopFraction float64

	// TieBreakOrder is the comparator field order. Empty uses DefaultTieBreakOrder.
	TieBreakOrder []TieBreakKey
}

// DefaultSelectionPolicy returns the top-quartile policy with the default tie-break order
func DefaultSelectionPolicy() SelectionPolicy {
	return SelectionPolicy{TopFraction: DefaultTopFraction, TieBreakOrder: DefaultTieBreakOrder}
}

func (p SelectionPolicy) tieBreakOrder() []TieBreakKey {
	if len(p.TieBreakOrder) == 0 {
		return DefaultTieBreakOrder
	}
	return p.TieBreakOrder
}

// Candidate is a scored facilitator for one role slot
type Candidate struct {
	Facilitator *FacilitatorState
	Score       ScoreBreakdown
}

// RankCandidates drops candidates with a zero score and orders the rest by score
// (descending), breaking ties with the comparator.
func RankCandidates(candidates []Candidate, policy SelectionPolicy) []Candidate {
	ranked := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score.Total > 0 {
			ranked = append(ranked, c)
		}
	}

	order := policy.tieBreakOrder()
	sort.SliceStable(ranked, func(i, j int) bool {
		if diff := ranked[i].Score.Total - ranked[j].Score.Total; math.Abs(diff) > scoreEpsilon {
			return diff > 0
		}
		return compareTieBreak(ranked[i], ranked[j], order) < 0
	})

	return ranked
}

// SelectCandidate picks the winner in two stages: rank and slice, then a
// lexicographic tie-break over the slice. Returns false if no candidate has a
// positive score.
func SelectCandidate(candidates []Candidate, policy SelectionPolicy) (Candidate, bool) {
	ranked := RankCandidates(candidates, policy)
	if len(ranked) == 0 {
		return Candidate{}, false
	}

	if policy.TopFraction <= 0 {
		return ranked[0], true
	}

	keep := int(math.Ceil(float64(len(ranked)) * math.Min(policy.TopFraction, 1)))
	keep = max(keep, 1)
	top := ranked[:keep]

	order := policy.tieBreakOrder()
	sort.SliceStable(top, func(i, j int) bool {
		return compareTieBreak(top[i], top[j], order) < 0
	})

	return top[0], true
}

// compareTieBreak returns a negative number if a is preferred over b, positive if b
// is preferred, and 0 only when both are the same facilitator.
func compareTieBreak(a, b Candidate, order []TieBreakKey) int {
	for _, key := range order {
		if c := compareOn(a, b, key); c != 0 {
			return c
		}
	}
	return compareOn(a, b, TieBreakFacilitatorID)
}

func compareOn(a, b Candidate, key TieBreakKey) int {
	switch key {
	case TieBreakSkillMatch:
		return compareDescending(a.Score.SubScore(CriterionSkillMatch), b.Score.SubScore(CriterionSkillMatch))
	case TieBreakSkillLevel:
		return compareDescending(a.Score.SubScore(CriterionSkillLevel), b.Score.SubScore(CriterionSkillLevel))
	case TieBreakAssignedHours:
		return -compareDescending(a.Facilitator.AssignedHours, b.Facilitator.AssignedHours)
	case TieBreakFacilitatorID:
		switch {
		case a.Facilitator.ID() < b.Facilitator.ID():
			return -1
		case a.Facilitator.ID() > b.Facilitator.ID():
			return 1
		}
	}
	return 0
}

// compareDescending orders higher values first
func compareDescending(a, b float64) int {
	if math.Abs(a-b) <= scoreEpsilon {
		return 0
	}
	if a > b {
		return -1
	}
	return 1
}
