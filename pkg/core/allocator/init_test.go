package allocator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

func validConfig() AllocationConfig {
	return AllocationConfig{
		Criteria:     []Criterion{&mockCriterion{name: "c", value: 1, weight: 1}},
		Facilitators: []model.Facilitator{newFacilitator("a", model.SkillProficient), newFacilitator("b", model.SkillHasRunBefore)},
		Sessions:     []model.Session{newSession("s1", 9, 2, 1, 1)},
		Modules:      []model.Module{{ID: "lab1", UnitID: "u1", Name: "Lab 1"}},
	}
}

func TestValidateInput_Valid(t *testing.T) {
	assert.NoError(t, ValidateInput(validConfig()))
}

func TestValidateInput_AggregatesProblems(t *testing.T) {
	config := validConfig()

	badTimes := newSession("s2", 9, 2, 1, 0)
	badTimes.End = badTimes.Start.Add(-time.Hour)
	noStaff := newSession("s3", 13, 1, 0, 0)
	unknownModule := newSession("s4", 15, 1, 1, 0)
	unknownModule.ModuleID = "lab9"
	config.Sessions = append(config.Sessions, badTimes, noStaff, unknownModule)

	config.Facilitators = append(config.Facilitators, newFacilitator("a", model.SkillProficient))
	config.Facilitators[1].Unavailability = []model.Unavailability{
		{Date: day, StartTime: 14 * time.Hour, EndTime: 12 * time.Hour},
	}

	err := ValidateInput(config)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrValidation))
	assert.Equal(t, "validation", model.ErrorKind(err))

	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr))

	message := err.Error()
	assert.Contains(t, message, `session[1] "s2"`)
	assert.Contains(t, message, `session[2] "s3" requires no staff`)
	assert.Contains(t, message, `unknown module "lab9"`)
	assert.Contains(t, message, `facilitator[2] "a" is duplicated`)
	assert.Contains(t, message, "malformed time range")
	assert.GreaterOrEqual(t, len(verr.Problems), 5)
}

func TestValidateInput_ClosedSessionMayHaveNoStaff(t *testing.T) {
	config := validConfig()
	config.Sessions = append(config.Sessions, newSession("closed", 13, 1, 0, 0))
	config.Overrides = []SessionOverride{{
		AppliesTo: func(s model.Session) bool { return s.ID == "closed" },
		Closed:    true,
	}}

	assert.NoError(t, ValidateInput(config))
}

func TestValidateInput_MinHoursAboveMaxHours(t *testing.T) {
	config := validConfig()
	config.Facilitators[0].MinHours = 10
	config.Facilitators[0].MaxHours = 4

	err := ValidateInput(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_hours 10 above max_hours 4")
}

func TestValidateInput_ExistingAssignmentReferences(t *testing.T) {
	config := validConfig()
	config.ExistingAssignments = []model.Assignment{
		{ID: "x1", SessionID: "nope", FacilitatorID: "a", Role: model.RoleLead},
		{ID: "x2", SessionID: "s1", FacilitatorID: "ghost", Role: model.RoleLead},
		{ID: "x3", SessionID: "s1", FacilitatorID: "a", Role: "observer"},
	}

	err := ValidateInput(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown session "nope"`)
	assert.Contains(t, err.Error(), `unknown facilitator "ghost"`)
	assert.Contains(t, err.Error(), "oneof")
}

func TestValidateInput_CriterionAndPolicyRanges(t *testing.T) {
	config := validConfig()
	config.Criteria = []Criterion{&mockCriterion{name: "bad", weight: -1, threshold: 2}}
	config.Selection.TopFraction = 1.5

	err := ValidateInput(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "criterion bad has negative weight")
	assert.Contains(t, err.Error(), "criterion bad has threshold")
	assert.Contains(t, err.Error(), "top fraction")
}

func TestInitRunState_SessionPriority(t *testing.T) {
	withSkills := newSession("s-skills", 13, 1, 1, 0)
	withSkills.RequiredSkills = []string{"python", "git"}

	config := AllocationConfig{
		Facilitators: []model.Facilitator{newFacilitator("a", model.SkillProficient)},
		Sessions: []model.Session{
			newSession("s-short", 8, 1, 1, 0),
			newSession("s-long", 9, 3, 1, 0),
			withSkills,
			newSession("s-a", 15, 1, 1, 0),
		},
	}

	state, err := InitRunState(config)
	require.NoError(t, err)

	order := make([]string, len(state.Sessions))
	for i, s := range state.Sessions {
		order[i] = s.ID()
		assert.Equal(t, i, s.Index)
	}
	assert.Equal(t, []string{"s-long", "s-skills", "s-a", "s-short"}, order)
}

func TestInitRunState_FacilitatorsSortedByID(t *testing.T) {
	config := AllocationConfig{
		Facilitators: []model.Facilitator{
			newFacilitator("c", model.SkillProficient),
			newFacilitator("a", model.SkillProficient),
			newFacilitator("b", model.SkillProficient),
		},
		Sessions: []model.Session{newSession("s1", 9, 1, 1, 0)},
	}

	state, err := InitRunState(config)
	require.NoError(t, err)
	require.Len(t, state.Facilitators, 3)
	assert.Equal(t, "a", state.Facilitators[0].ID())
	assert.Equal(t, "b", state.Facilitators[1].ID())
	assert.Equal(t, "c", state.Facilitators[2].ID())
	assert.NotNil(t, state.Facilitator("b"))
	assert.Nil(t, state.Facilitator("z"))
}

func TestInitRunState_PreloadsExistingAssignments(t *testing.T) {
	other := newSession("other-unit", 14, 3, 1, 0)
	config := AllocationConfig{
		Facilitators:    []model.Facilitator{newFacilitator("a", model.SkillProficient), newFacilitator("b", model.SkillProficient)},
		Sessions:        []model.Session{newSession("s1", 9, 2, 1, 1)},
		ContextSessions: []model.Session{other},
		ExistingAssignments: []model.Assignment{
			{ID: "x1", SessionID: "s1", FacilitatorID: "a", Role: model.RoleLead},
			{ID: "x2", SessionID: "other-unit", FacilitatorID: "b", Role: model.RoleLead},
		},
	}

	state, err := InitRunState(config)
	require.NoError(t, err)

	s1 := state.Session("s1")
	require.NotNil(t, s1)
	assert.Equal(t, []string{"a"}, s1.Leads)
	assert.True(t, s1.IsRoleFull(model.RoleLead))
	assert.False(t, s1.IsComplete())

	a := state.Facilitator("a")
	assert.Equal(t, 2.0, a.AssignedHours)
	assert.True(t, a.IsScheduledFor("s1"))

	b := state.Facilitator("b")
	assert.Equal(t, 3.0, b.AssignedHours)
	assert.True(t, b.OverlapsSchedule(model.TimeWindow{Start: at(15), End: at(16)}))
	assert.Nil(t, state.Session("other-unit"))

	assert.Len(t, state.Preloaded, 2)
	assert.Empty(t, state.Assignments)
}

func TestInitRunState_Overrides(t *testing.T) {
	config := AllocationConfig{
		Facilitators: []model.Facilitator{newFacilitator("a", model.SkillProficient)},
		Sessions: []model.Session{
			newSession("s1", 9, 2, 1, 1),
			newSession("s2", 13, 2, 1, 1),
		},
		Overrides: []SessionOverride{
			{
				AppliesTo:            func(s model.Session) bool { return s.ID == "s1" },
				SupportStaffRequired: intPtr(3),
			},
			{
				AppliesTo: func(s model.Session) bool { return s.ID == "s2" },
				Closed:    true,
			},
		},
	}

	state, err := InitRunState(config)
	require.NoError(t, err)

	assert.Equal(t, 3, state.Session("s1").Session.SupportStaffRequired)
	assert.Equal(t, 1, state.Session("s1").Session.LeadStaffRequired)
	assert.False(t, state.Session("s1").Closed)
	assert.True(t, state.Session("s2").Closed)
}

func TestInitRunState_ExpandsRecurringUnavailability(t *testing.T) {
	facilitator := newFacilitator("a", model.SkillProficient)
	facilitator.Unavailability = []model.Unavailability{{
		Date:       day,
		IsFullDay:  true,
		Recurrence: &model.Recurrence{Frequency: model.FrequencyWeekly, Interval: 1},
	}}

	twoWeeksLater := newSession("s1", 24*14+9, 2, 1, 0)
	config := AllocationConfig{
		Facilitators: []model.Facilitator{facilitator},
		Sessions:     []model.Session{twoWeeksLater},
	}

	state, err := InitRunState(config)
	require.NoError(t, err)
	assert.True(t, state.Facilitator("a").IsUnavailableFor(&state.Session("s1").Session))
}

func TestInitRunState_UnknownExistingSession(t *testing.T) {
	config := validConfig()
	config.ExistingAssignments = []model.Assignment{{ID: "x1", SessionID: "gone", FacilitatorID: "a", Role: model.RoleLead}}

	_, err := InitRunState(config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown session gone")
}
