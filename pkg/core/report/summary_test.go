package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func testSource() Source {
	return Source{
		Facilitators: []model.Facilitator{
			{ID: "fac-b", Name: "Bea", Skills: map[string]model.SkillLevel{"lab1": model.SkillHasRunBefore, "lab2": model.SkillNoInterest}},
			{ID: "fac-a", Name: "Ash", Skills: map[string]model.SkillLevel{"lab1": model.SkillProficient}},
			{ID: "fac-c", Name: "Cal"},
		},
		Sessions: []model.Session{
			{ID: "s2", ModuleID: "lab1", Start: monday.Add(13 * time.Hour), End: monday.Add(14 * time.Hour)},
			{ID: "s1", ModuleID: "lab1", Start: monday.Add(9 * time.Hour), End: monday.Add(11 * time.Hour)},
		},
		Modules: []model.Module{{ID: "lab2"}, {ID: "lab1"}},
		Assignments: []model.Assignment{
			{ID: "x3", SessionID: "s2", FacilitatorID: "fac-a", Role: model.RoleLead},
			{ID: "x2", SessionID: "s1", FacilitatorID: "fac-b", Role: model.RoleSupport, IsConfirmed: true},
			{ID: "x1", SessionID: "s1", FacilitatorID: "fac-a", Role: model.RoleLead},
		},
		Scores: map[string]float64{"x1": 0.877, "x2": 0.835},
		Unstaffed: []allocator.UnstaffedSlot{
			{SessionID: "s2", Role: model.RoleSupport, Reason: allocator.ReasonNoFeasibleFacilitator},
		},
	}
}

func TestBuildSummary_AssignmentOrderAndScores(t *testing.T) {
	summary := BuildSummary(testSource())

	require.Len(t, summary.Assignments, 3)
	assert.Equal(t, "x1", summary.Assignments[0].AssignmentID)
	assert.Equal(t, "x2", summary.Assignments[1].AssignmentID)
	assert.Equal(t, "x3", summary.Assignments[2].AssignmentID)

	require.NotNil(t, summary.Assignments[0].Score)
	assert.Equal(t, 0.877, *summary.Assignments[0].Score)
	assert.Nil(t, summary.Assignments[2].Score)

	assert.Equal(t, "proficient", summary.Assignments[0].SkillLevel)
	assert.Equal(t, "has_run_before", summary.Assignments[1].SkillLevel)
	assert.Equal(t, "Ash", summary.Assignments[0].FacilitatorName)
}

func TestBuildSummary_SkillDistribution(t *testing.T) {
	summary := BuildSummary(testSource())

	assert.Equal(t, []CountLine{
		{Label: "no_interest", Count: 0},
		{Label: "has_some_skill", Count: 0},
		{Label: "has_run_before", Count: 1},
		{Label: "proficient", Count: 2},
		{Label: "not_declared", Count: 0},
	}, summary.SkillDistribution)
}

func TestBuildSummary_FacilitatorSkillsIncludesUndeclared(t *testing.T) {
	summary := BuildSummary(testSource())

	assert.Equal(t, []SkillLine{
		{FacilitatorID: "fac-a", FacilitatorName: "Ash", ModuleID: "lab1", SkillLevel: "proficient"},
		{FacilitatorID: "fac-a", FacilitatorName: "Ash", ModuleID: "lab2", SkillLevel: "not_declared"},
		{FacilitatorID: "fac-b", FacilitatorName: "Bea", ModuleID: "lab1", SkillLevel: "has_run_before"},
		{FacilitatorID: "fac-b", FacilitatorName: "Bea", ModuleID: "lab2", SkillLevel: "no_interest"},
		{FacilitatorID: "fac-c", FacilitatorName: "Cal", ModuleID: "lab1", SkillLevel: "not_declared"},
		{FacilitatorID: "fac-c", FacilitatorName: "Cal", ModuleID: "lab2", SkillLevel: "not_declared"},
	}, summary.FacilitatorSkills)
}

func TestBuildSummary_Fairness(t *testing.T) {
	summary := BuildSummary(testSource())

	assert.Equal(t, map[string]float64{"fac-a": 3, "fac-b": 2, "fac-c": 0}, summary.Fairness.HoursByFacilitator)
	assert.Equal(t, 0.0, summary.Fairness.Min)
	assert.Equal(t, 3.0, summary.Fairness.Max)
	assert.InDelta(t, 5.0/3.0, summary.Fairness.Avg, 1e-9)
}

func TestBuildSummary_Empty(t *testing.T) {
	summary := BuildSummary(Source{})

	assert.Empty(t, summary.Assignments)
	assert.NotNil(t, summary.Unstaffed)
	assert.Len(t, summary.SkillDistribution, 5)
	assert.Empty(t, summary.FacilitatorSkills)
	assert.NotNil(t, summary.Fairness.HoursByFacilitator)
}

func TestWriteCSV_Sections(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, BuildSummary(testSource())))

	reader := csv.NewReader(strings.NewReader(buf.String()))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)

	var titles []string
	for _, record := range records {
		if len(record) == 1 {
			titles = append(titles, record[0])
		}
	}
	assert.Equal(t, []string{SectionAssignments, SectionUnstaffed, SectionSkillDistribution, SectionFacilitatorSkills, SectionFairness}, titles)

	output := buf.String()
	assert.Contains(t, output, "x1,s1,lab1,2025-03-03T09:00:00Z,2025-03-03T11:00:00Z,fac-a,Ash,lead,proficient,0.877,false")
	assert.Contains(t, output, "x3,s2,lab1,2025-03-03T13:00:00Z,2025-03-03T14:00:00Z,fac-a,Ash,lead,proficient,,false")
	assert.Contains(t, output, "s2,support,no feasible facilitator")
	assert.Contains(t, output, "fac-b,Bea,lab2,no_interest")
	assert.Contains(t, output, "max_hours,3.000")
	assert.Contains(t, output, "fac-c,0.000")
}
