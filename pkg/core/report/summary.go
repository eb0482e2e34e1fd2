// Package report formats allocation results as a sectioned CSV summary.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

// Section titles, written as a single-cell row before each section
const (
	SectionAssignments       = "Assignments"
	SectionUnstaffed         = "Unstaffed Slots"
	SectionSkillDistribution = "Skill Distribution"
	SectionFacilitatorSkills = "Facilitator Skills"
	SectionFairness          = "Fairness"
)

// Source is everything a summary is built from
type Source struct {
	Facilitators []model.Facilitator
	Sessions     []model.Session
	Modules      []model.Module
	Assignments  []model.Assignment

	// Scores holds the winning score of allocator-created assignments by assignment ID
	Scores map[string]float64

	Unstaffed []allocator.UnstaffedSlot
}

// AssignmentLine is one row of the assignment section
type AssignmentLine struct {
	AssignmentID    string
	SessionID       string
	ModuleID        string
	Start           time.Time
	End             time.Time
	FacilitatorID   string
	FacilitatorName string
	Role            model.Role
	SkillLevel      string
	Confirmed       bool

	// Score is nil for assignments not created by the allocator
	Score *float64
}

// SkillLine is one facilitator's declaration for one module
type SkillLine struct {
	FacilitatorID   string
	FacilitatorName string
	ModuleID        string
	SkillLevel      string
}

// CountLine is a labelled count
type CountLine struct {
	Label string
	Count int
}

// Summary is the CSV-ready report
type Summary struct {
	Assignments       []AssignmentLine
	Unstaffed         []allocator.UnstaffedSlot
	SkillDistribution []CountLine
	FacilitatorSkills []SkillLine
	Fairness          allocator.FairnessStats
}

// BuildSummary assembles the report. Assignments are ordered by session start then
// role then facilitator; every facilitator gets one skill row per module, including
// explicit no_interest and not_declared rows.
func BuildSummary(source Source) Summary {
	sessions := make(map[string]model.Session, len(source.Sessions))
	for _, s := range source.Sessions {
		sessions[s.ID] = s
	}
	facilitators := make(map[string]model.Facilitator, len(source.Facilitators))
	for _, f := range source.Facilitators {
		facilitators[f.ID] = f
	}

	summary := Summary{Unstaffed: source.Unstaffed}
	if summary.Unstaffed == nil {
		summary.Unstaffed = []allocator.UnstaffedSlot{}
	}

	distribution := map[string]int{}
	hours := make(map[string]float64, len(source.Facilitators))
	for _, f := range source.Facilitators {
		hours[f.ID] = 0
	}

	for _, a := range source.Assignments {
		session, ok := sessions[a.SessionID]
		if !ok {
			continue
		}
		facilitator := facilitators[a.FacilitatorID]

		line := AssignmentLine{
			AssignmentID:    a.ID,
			SessionID:       a.SessionID,
			ModuleID:        session.ModuleID,
			Start:           session.Start,
			End:             session.End,
			FacilitatorID:   a.FacilitatorID,
			FacilitatorName: facilitator.Name,
			Role:            a.Role,
			SkillLevel:      allocator.SkillLevelKey(&facilitator, session.ModuleID),
			Confirmed:       a.IsConfirmed,
		}
		if score, ok := source.Scores[a.ID]; ok {
			line.Score = &score
		}
		summary.Assignments = append(summary.Assignments, line)

		distribution[line.SkillLevel]++
		hours[a.FacilitatorID] += session.Hours()
	}

	sort.SliceStable(summary.Assignments, func(i, j int) bool {
		a, b := summary.Assignments[i], summary.Assignments[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if a.SessionID != b.SessionID {
			return a.SessionID < b.SessionID
		}
		if a.Role != b.Role {
			return a.Role == model.RoleLead
		}
		return a.FacilitatorID < b.FacilitatorID
	})

	for _, level := range model.AllSkillLevels() {
		summary.SkillDistribution = append(summary.SkillDistribution, CountLine{Label: level.String(), Count: distribution[level.String()]})
	}
	summary.SkillDistribution = append(summary.SkillDistribution, CountLine{Label: allocator.SkillNotDeclared, Count: distribution[allocator.SkillNotDeclared]})

	summary.FacilitatorSkills = facilitatorSkills(source)
	summary.Fairness = allocator.FairnessFromHours(hours)

	return summary
}

func facilitatorSkills(source Source) []SkillLine {
	moduleIDs := make([]string, 0, len(source.Modules))
	for _, m := range source.Modules {
		moduleIDs = append(moduleIDs, m.ID)
	}
	if len(moduleIDs) == 0 {
		// Fall back to the modules that have sessions
		seen := map[string]bool{}
		for _, s := range source.Sessions {
			if !seen[s.ModuleID] {
				seen[s.ModuleID] = true
				moduleIDs = append(moduleIDs, s.ModuleID)
			}
		}
	}
	sort.Strings(moduleIDs)

	ordered := make([]model.Facilitator, len(source.Facilitators))
	copy(ordered, source.Facilitators)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	lines := make([]SkillLine, 0, len(ordered)*len(moduleIDs))
	for i := range ordered {
		f := &ordered[i]
		for _, moduleID := range moduleIDs {
			lines = append(lines, SkillLine{
				FacilitatorID:   f.ID,
				FacilitatorName: f.Name,
				ModuleID:        moduleID,
				SkillLevel:      allocator.SkillLevelKey(f, moduleID),
			})
		}
	}
	return lines
}

// Rows renders the summary as CSV records, one section after another separated
// by an empty record
func (s *Summary) Rows() [][]string {
	var rows [][]string

	rows = append(rows,
		[]string{SectionAssignments},
		[]string{"assignment_id", "session_id", "module_id", "start", "end", "facilitator_id", "facilitator_name", "role", "skill_level", "score", "confirmed"},
	)
	for _, a := range s.Assignments {
		score := ""
		if a.Score != nil {
			score = formatFloat(*a.Score)
		}
		rows = append(rows, []string{
			a.AssignmentID,
			a.SessionID,
			a.ModuleID,
			a.Start.Format(time.RFC3339),
			a.End.Format(time.RFC3339),
			a.FacilitatorID,
			a.FacilitatorName,
			string(a.Role),
			a.SkillLevel,
			score,
			strconv.FormatBool(a.Confirmed),
		})
	}

	rows = append(rows, []string{}, []string{SectionUnstaffed}, []string{"session_id", "role", "reason"})
	for _, u := range s.Unstaffed {
		rows = append(rows, []string{u.SessionID, string(u.Role), u.Reason})
	}

	rows = append(rows, []string{}, []string{SectionSkillDistribution}, []string{"skill_level", "count"})
	for _, c := range s.SkillDistribution {
		rows = append(rows, []string{c.Label, strconv.Itoa(c.Count)})
	}

	rows = append(rows, []string{}, []string{SectionFacilitatorSkills}, []string{"facilitator_id", "facilitator_name", "module_id", "skill_level"})
	for _, l := range s.FacilitatorSkills {
		rows = append(rows, []string{l.FacilitatorID, l.FacilitatorName, l.ModuleID, l.SkillLevel})
	}

	rows = append(rows, []string{}, []string{SectionFairness}, []string{"statistic", "value"},
		[]string{"min_hours", formatFloat(s.Fairness.Min)},
		[]string{"max_hours", formatFloat(s.Fairness.Max)},
		[]string{"avg_hours", formatFloat(s.Fairness.Avg)},
		[]string{"stddev_hours", formatFloat(s.Fairness.StdDev)},
		[]string{},
		[]string{"facilitator_id", "assigned_hours"},
	)
	ids := make([]string, 0, len(s.Fairness.HoursByFacilitator))
	for id := range s.Fairness.HoursByFacilitator {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		rows = append(rows, []string{id, formatFloat(s.Fairness.HoursByFacilitator[id])})
	}

	return rows
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.3f", v)
}
