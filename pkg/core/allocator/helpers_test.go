package allocator

import (
	"time"

	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

type mockCriterion struct {
	name      string
	value     float64
	weight    float64
	threshold float64

	// scoreFn overrides value when set
	scoreFn func(facilitator *FacilitatorState, session *SessionState, role model.Role) float64
}

func (m *mockCriterion) Name() string {
	return m.name
}

func (m *mockCriterion) IsSessionValid(state *RunState, facilitator *FacilitatorState, session *SessionState, role model.Role) bool {
	return true
}

func (m *mockCriterion) CalculateScore(state *RunState, facilitator *FacilitatorState, session *SessionState, role model.Role) float64 {
	if m.scoreFn != nil {
		return m.scoreFn(facilitator, session, role)
	}
	return m.value
}

func (m *mockCriterion) Weight() float64 {
	return m.weight
}

func (m *mockCriterion) Threshold() float64 {
	return m.threshold
}

type mockCriterionWithValidity struct {
	mockCriterion
	isValid bool
}

func (m *mockCriterionWithValidity) IsSessionValid(state *RunState, facilitator *FacilitatorState, session *SessionState, role model.Role) bool {
	return m.isValid
}

// scoreByID returns a criterion scoring each facilitator from a fixed table
func scoreByID(scores map[string]float64) *mockCriterion {
	return &mockCriterion{
		name:   "by_id",
		weight: 1.0,
		scoreFn: func(facilitator *FacilitatorState, session *SessionState, role model.Role) float64 {
			return scores[facilitator.ID()]
		},
	}
}

// fewestHours prefers facilitators with fewer assigned hours
func fewestHours() *mockCriterion {
	return &mockCriterion{
		name:   "fewest_hours",
		weight: 1.0,
		scoreFn: func(facilitator *FacilitatorState, session *SessionState, role model.Role) float64 {
			return 1 / (1 + facilitator.AssignedHours)
		},
	}
}

// day is Monday 2025-03-03 00:00 UTC
var day = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time {
	return day.Add(time.Duration(hour) * time.Hour)
}

func newSession(id string, startHour, hours, leads, supports int) model.Session {
	return model.Session{
		ID:                   id,
		ModuleID:             "lab1",
		Start:                at(startHour),
		End:                  at(startHour + hours),
		LeadStaffRequired:    leads,
		SupportStaffRequired: supports,
	}
}

func newFacilitator(id string, level model.SkillLevel) model.Facilitator {
	return model.Facilitator{
		ID:     id,
		Name:   id,
		Skills: map[string]model.SkillLevel{"lab1": level},
	}
}

func intPtr(v int) *int {
	return &v
}
