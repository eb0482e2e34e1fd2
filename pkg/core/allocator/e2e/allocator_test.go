package e2e

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator"
	"github.com/jakechorley/facilitator-allocator/pkg/core/conflicts"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

// monday is 2025-03-03 00:00 in London
var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, mustLocation("Europe/London"))

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func defaultConfig(facilitators []Facilitator, sessions []Session) AllocationConfig {
	return AllocationConfig{
		Criteria:     DefaultPolicy().Build(),
		Facilitators: facilitators,
		Sessions:     sessions,
		Modules: []model.Module{
			{ID: "lab1", UnitID: "fit1045", Name: "Lab 1"},
			{ID: "lab2", UnitID: "fit1045", Name: "Lab 2"},
			{ID: "tute", UnitID: "fit1045", Name: "Tutorial"},
		},
		Selection: allocator.DefaultSelectionPolicy(),
	}
}

func TestAllocator_LeadGoesToMoreSkilledFacilitator(t *testing.T) {
	facilitators := []Facilitator{
		{ID: "fac-b", Name: "B", Skills: map[string]SkillLevel{"lab1": model.SkillHasRunBefore}},
		{ID: "fac-a", Name: "A", Skills: map[string]SkillLevel{"lab1": model.SkillProficient}, HistoricalAssignmentCount: 2},
	}
	sessions := []Session{{
		ID:                   "s1",
		ModuleID:             "lab1",
		Start:                monday.Add(10 * time.Hour),
		End:                  monday.Add(12 * time.Hour),
		LeadStaffRequired:    1,
		SupportStaffRequired: 1,
	}}

	outcome, err := Allocate(defaultConfig(facilitators, sessions))
	require.NoError(t, err)

	require.Len(t, outcome.Assignments, 2)
	assert.Equal(t, "fac-a", outcome.Assignments[0].FacilitatorID)
	assert.Equal(t, model.RoleLead, outcome.Assignments[0].Role)
	assert.Equal(t, "fac-b", outcome.Assignments[1].FacilitatorID)
	assert.Equal(t, model.RoleSupport, outcome.Assignments[1].Role)

	// 0.30 + 0.25 + 0.20*1.0 + 0.15*0.5 + 0.05*(2/50) + 0.05
	assert.InDelta(t, 0.877, outcome.Assignments[0].Score.Total, 1e-9)
	assert.Greater(t, outcome.Assignments[0].Score.SubScore("skill_level"), 0.8-1e-9)

	assert.Empty(t, outcome.Unstaffed)
	assert.Empty(t, outcome.Conflicts)
	assert.True(t, outcome.Success)
}

func TestAllocator_UnavailableOnlySkilledFacilitator(t *testing.T) {
	session := Session{
		ID:                "s1",
		ModuleID:          "lab2",
		Start:             monday.Add(14 * time.Hour),
		End:               monday.Add(16 * time.Hour),
		LeadStaffRequired: 1,
	}
	facilitators := []Facilitator{
		{
			ID:     "fac-c",
			Skills: map[string]SkillLevel{"lab2": model.SkillProficient},
			Unavailability: []Unavailability{
				{ID: "u1", FacilitatorID: "fac-c", Date: monday, IsFullDay: true, Reason: "conference"},
			},
		},
		{ID: "fac-d", Skills: map[string]SkillLevel{"lab1": model.SkillProficient}},
		{ID: "fac-e"},
	}

	config := defaultConfig(facilitators, []Session{session})
	outcome, err := Allocate(config)
	require.NoError(t, err)

	assert.Empty(t, outcome.Assignments)
	require.Len(t, outcome.Unstaffed, 1)
	assert.Equal(t, allocator.UnstaffedSlot{SessionID: "s1", Role: model.RoleLead, Reason: "no feasible facilitator"}, outcome.Unstaffed[0])

	state := outcome.State
	breakdown := allocator.Score(state, state.Facilitator("fac-c"), state.Session("s1"), model.RoleLead, config.Criteria)
	assert.False(t, breakdown.Feasible)
	assert.Equal(t, 0.0, breakdown.Total)

	// Undeclared skill reaches scoring but is gated on skill level
	breakdown = allocator.Score(state, state.Facilitator("fac-e"), state.Session("s1"), model.RoleLead, config.Criteria)
	assert.True(t, breakdown.Feasible)
	assert.Equal(t, "skill_level", breakdown.GatedBy)
}

func TestAllocator_RequiredSkillsGate(t *testing.T) {
	session := Session{
		ID:                "s1",
		ModuleID:          "lab1",
		Start:             monday.Add(9 * time.Hour),
		End:               monday.Add(11 * time.Hour),
		LeadStaffRequired: 1,
		RequiredSkills:    []string{"python", "git", "sql", "docker"},
	}
	facilitators := []Facilitator{
		{ID: "fac-a", Skills: map[string]SkillLevel{"lab1": model.SkillProficient}, SkillTags: []string{"python"}},
		{ID: "fac-b", Skills: map[string]SkillLevel{"lab1": model.SkillHasSomeSkill}, SkillTags: []string{"python", "git"}},
	}

	outcome, err := Allocate(defaultConfig(facilitators, []Session{session}))
	require.NoError(t, err)

	// fac-a only matches 0.25 of the required skills, below the 0.3 floor
	require.Len(t, outcome.Assignments, 1)
	assert.Equal(t, "fac-b", outcome.Assignments[0].FacilitatorID)
}

func TestAllocator_SpreadsWorkload(t *testing.T) {
	var facilitators []Facilitator
	for _, id := range []string{"fac-a", "fac-b", "fac-c"} {
		facilitators = append(facilitators, Facilitator{ID: id, Skills: map[string]SkillLevel{"tute": model.SkillProficient}})
	}
	var sessions []Session
	for day := range 3 {
		start := monday.AddDate(0, 0, day).Add(9 * time.Hour)
		sessions = append(sessions, Session{
			ID:                fmt.Sprintf("tute-%d", day),
			ModuleID:          "tute",
			Start:             start,
			End:               start.Add(time.Hour),
			LeadStaffRequired: 1,
		})
	}

	outcome, err := Allocate(defaultConfig(facilitators, sessions))
	require.NoError(t, err)

	assigned := map[string]int{}
	for _, a := range outcome.Assignments {
		assigned[a.FacilitatorID]++
	}
	assert.Equal(t, map[string]int{"fac-a": 1, "fac-b": 1, "fac-c": 1}, assigned)
	assert.Equal(t, 0.0, outcome.Metrics.Fairness.StdDev)
}

// generatedInput builds a deterministic week of sessions and a pool of facilitators
// with a mix of skills, unavailability and preferences.
func generatedInput() ([]Facilitator, []Session) {
	modules := []string{"lab1", "lab2", "tute"}
	levels := model.AllSkillLevels()

	var facilitators []Facilitator
	for i := range 12 {
		f := Facilitator{
			ID:                        fmt.Sprintf("fac-%02d", i),
			Name:                      fmt.Sprintf("Facilitator %d", i),
			Skills:                    map[string]SkillLevel{},
			HistoricalAssignmentCount: i * 3,
			MaxHours:                  12,
		}
		for j, module := range modules {
			f.Skills[module] = levels[(i+j)%len(levels)]
		}
		if i%2 == 0 {
			f.SkillTags = []string{"python"}
			f.Preferences.TimesOfDay = []model.TimeOfDay{model.TimeOfDayMorning}
		}
		if i%3 == 0 {
			f.Unavailability = append(f.Unavailability, Unavailability{
				ID:        fmt.Sprintf("u-%d-full", i),
				Date:      monday.AddDate(0, 0, i%5),
				IsFullDay: true,
			})
		}
		if i%4 == 1 {
			f.Unavailability = append(f.Unavailability, Unavailability{
				ID:         fmt.Sprintf("u-%d-weekly", i),
				Date:       monday,
				StartTime:  13 * time.Hour,
				EndTime:    15 * time.Hour,
				Recurrence: &model.Recurrence{Frequency: model.FrequencyDaily, Interval: 2},
			})
		}
		facilitators = append(facilitators, f)
	}

	var sessions []Session
	for day := range 5 {
		for slot, hour := range []int{9, 11, 14, 16} {
			start := monday.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour)
			session := Session{
				ID:                   fmt.Sprintf("s-%d-%d", day, slot),
				ModuleID:             modules[(day+slot)%len(modules)],
				SessionType:          "lab",
				Start:                start,
				End:                  start.Add(time.Duration(2+slot%2) * time.Hour),
				LeadStaffRequired:    1,
				SupportStaffRequired: slot % 3,
			}
			if slot == 0 {
				session.RequiredSkills = []string{"python"}
			}
			sessions = append(sessions, session)
		}
	}

	return facilitators, sessions
}

func TestAllocator_HardConstraintProperties(t *testing.T) {
	facilitators, sessions := generatedInput()

	outcome, err := Allocate(defaultConfig(facilitators, sessions))
	require.NoError(t, err)
	require.NotEmpty(t, outcome.Assignments)

	sessionsByID := map[string]Session{}
	for _, s := range sessions {
		sessionsByID[s.ID] = s
	}
	facilitatorsByID := map[string]Facilitator{}
	for _, f := range facilitators {
		facilitatorsByID[f.ID] = f
	}

	// No assignment to a module the facilitator declared no interest in
	for _, a := range outcome.Assignments {
		fac := facilitatorsByID[a.FacilitatorID]
		level, declared := fac.SkillFor(sessionsByID[a.SessionID].ModuleID)
		assert.False(t, declared && level == model.SkillNoInterest, "%s assigned to %s with no interest", a.FacilitatorID, a.SessionID)
	}

	// No double-booking or unavailability violation anywhere in the result
	detector, err := conflicts.NewDetector(sessions, facilitators)
	require.NoError(t, err)

	var created []model.Assignment
	for _, a := range outcome.Assignments {
		created = append(created, a.Assignment())
	}
	assert.Empty(t, detector.Detect(created))
	assert.Empty(t, outcome.Conflicts)

	// Role quotas are never exceeded
	for _, s := range outcome.State.Sessions {
		assert.LessOrEqual(t, len(s.Leads), s.Session.LeadStaffRequired)
		assert.LessOrEqual(t, len(s.Supports), s.Session.SupportStaffRequired)
	}
}

func TestAllocator_Deterministic(t *testing.T) {
	facilitators, sessions := generatedInput()

	first, err := Allocate(defaultConfig(facilitators, sessions))
	require.NoError(t, err)
	second, err := Allocate(defaultConfig(facilitators, sessions))
	require.NoError(t, err)

	if diff := cmp.Diff(first.Assignments, second.Assignments); diff != "" {
		t.Errorf("assignments differ between runs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Unstaffed, second.Unstaffed); diff != "" {
		t.Errorf("unstaffed slots differ between runs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Metrics, second.Metrics); diff != "" {
		t.Errorf("metrics differ between runs (-first +second):\n%s", diff)
	}
}

func TestAllocator_QuotaMonotonicity(t *testing.T) {
	facilitators, sessions := generatedInput()

	baseline, err := Allocate(defaultConfig(facilitators, sessions))
	require.NoError(t, err)

	for i := range sessions {
		bumped := make([]Session, len(sessions))
		copy(bumped, sessions)
		bumped[i].LeadStaffRequired++

		outcome, err := Allocate(defaultConfig(facilitators, bumped))
		require.NoError(t, err)

		id := sessions[i].ID
		before := len(baseline.State.Session(id).Leads)
		after := len(outcome.State.Session(id).Leads)
		assert.GreaterOrEqual(t, after, before, "session %s lost leads after raising its quota", id)
	}
}
