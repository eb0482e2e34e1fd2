package allocator

import (
	"maps"
	"math"
	"slices"

	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

// SkillNotDeclared is the skill distribution key for facilitators with no declared
// tier for the session's module
const SkillNotDeclared = "not_declared"

// FairnessStats summarises assigned hours across every facilitator in the run
type FairnessStats struct {
	Min    float64
	Max    float64
	Avg    float64
	StdDev float64

	// HoursByFacilitator holds each facilitator's final assigned hours
	HoursByFacilitator map[string]float64
}

// Metrics summarises a single allocation run
type Metrics struct {
	// AvgScore is the mean winning score of assignments created in this run
	AvgScore float64

	// TotalHours is the sum of session hours over assignments created in this run
	TotalHours float64

	// FacilitatorCount is the number of distinct facilitators assigned in this run
	FacilitatorCount int

	// SkillDistribution counts created assignments by the assignee's skill tier
	SkillDistribution map[string]int

	Fairness FairnessStats
}

// CalculateMetrics computes run metrics from the final state
func CalculateMetrics(state *RunState) Metrics {
	metrics := Metrics{SkillDistribution: map[string]int{}}

	assigned := map[string]bool{}
	scoreSum := 0.0
	for _, assignment := range state.Assignments {
		session := state.Session(assignment.SessionID)
		facilitator := state.Facilitator(assignment.FacilitatorID)
		if session == nil || facilitator == nil {
			continue
		}

		scoreSum += assignment.Score.Total
		metrics.TotalHours += session.Session.Hours()
		assigned[assignment.FacilitatorID] = true

		metrics.SkillDistribution[SkillLevelKey(&facilitator.Facilitator, session.Session.ModuleID)]++
	}
	if len(state.Assignments) > 0 {
		metrics.AvgScore = scoreSum / float64(len(state.Assignments))
	}
	metrics.FacilitatorCount = len(assigned)

	metrics.Fairness = fairnessStats(state.Facilitators)
	return metrics
}

func fairnessStats(facilitators []*FacilitatorState) FairnessStats {
	hours := make(map[string]float64, len(facilitators))
	for _, f := range facilitators {
		hours[f.ID()] = f.AssignedHours
	}
	return FairnessFromHours(hours)
}

// FairnessFromHours computes fairness statistics from per-facilitator hours.
// Facilitators with no hours must be present with a 0 entry to be counted.
func FairnessFromHours(hours map[string]float64) FairnessStats {
	stats := FairnessStats{HoursByFacilitator: hours}
	if len(hours) == 0 {
		stats.HoursByFacilitator = map[string]float64{}
		return stats
	}

	// Sum in key order so repeated runs produce identical floats
	ids := slices.Sorted(maps.Keys(hours))

	sum := 0.0
	for i, id := range ids {
		h := hours[id]
		sum += h
		if i == 0 || h < stats.Min {
			stats.Min = h
		}
		if i == 0 || h > stats.Max {
			stats.Max = h
		}
	}
	stats.Avg = sum / float64(len(hours))

	variance := 0.0
	for _, id := range ids {
		diff := hours[id] - stats.Avg
		variance += diff * diff
	}
	stats.StdDev = math.Sqrt(variance / float64(len(hours)))

	return stats
}

// SkillLevelKey returns the skill distribution key for a facilitator on a module
func SkillLevelKey(facilitator *model.Facilitator, moduleID string) string {
	if level, ok := facilitator.SkillFor(moduleID); ok {
		return level.String()
	}
	return SkillNotDeclared
}
