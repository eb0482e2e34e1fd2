package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
	"github.com/jakechorley/facilitator-allocator/pkg/core/services"
	"github.com/jakechorley/facilitator-allocator/pkg/db"
)

func ptr(f float64) *float64 { return &f }

func TestMergeSources(t *testing.T) {
	facilitators := []model.Facilitator{{ID: "fac-a", Name: "Alice"}}
	modules := []model.Module{{ID: "lab1", UnitID: "fit1045"}, {ID: "lab2", UnitID: "fit2004"}}

	first := &services.AllocateResult{
		UnitID:       "fit1045",
		Facilitators: facilitators,
		Modules:      modules,
		Sessions:     []model.Session{{ID: "s1", ModuleID: "lab1"}},
		Existing:     []model.Assignment{{ID: "old", SessionID: "s1", FacilitatorID: "fac-a", Role: model.RoleSupport}},
		Created: []db.AssignmentRecord{
			{Assignment: model.Assignment{ID: "a1", SessionID: "s1", FacilitatorID: "fac-a", Role: model.RoleLead}, Score: ptr(0.9)},
		},
		Outcome: &allocator.AllocationOutcome{},
	}
	second := &services.AllocateResult{
		UnitID:       "fit2004",
		Facilitators: facilitators,
		Modules:      modules,
		Sessions:     []model.Session{{ID: "s2", ModuleID: "lab2"}},
		Created: []db.AssignmentRecord{
			{Assignment: model.Assignment{ID: "a2", SessionID: "s2", FacilitatorID: "fac-a", Role: model.RoleLead}, Score: ptr(0.5)},
		},
		Outcome: &allocator.AllocationOutcome{
			Unstaffed: []allocator.UnstaffedSlot{{SessionID: "s2", Role: model.RoleSupport, Reason: "no feasible facilitator"}},
		},
	}

	merged := mergeSources([]*services.AllocateResult{first, second})

	assert.Equal(t, facilitators, merged.Facilitators)
	assert.Equal(t, modules, merged.Modules)
	assert.Len(t, merged.Sessions, 2)

	ids := make([]string, len(merged.Assignments))
	for i, a := range merged.Assignments {
		ids[i] = a.ID
	}
	assert.Equal(t, []string{"old", "a1", "a2"}, ids)
	assert.Equal(t, map[string]float64{"a1": 0.9, "a2": 0.5}, merged.Scores)
	assert.Len(t, merged.Unstaffed, 1)
}

func TestMergeSources_Empty(t *testing.T) {
	merged := mergeSources(nil)

	assert.Empty(t, merged.Assignments)
	assert.NotNil(t, merged.Scores)
}
