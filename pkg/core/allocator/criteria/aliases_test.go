package criteria

import (
	"time"

	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

// Type aliases for test readability - shared across all criterion tests
type (
	RunState         = allocator.RunState
	FacilitatorState = allocator.FacilitatorState
	SessionState     = allocator.SessionState
	Facilitator      = model.Facilitator
	Session          = model.Session
)

// monday is 2025-03-03 00:00 UTC
var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func sessionAt(id string, start time.Time, hours int) *SessionState {
	return &SessionState{Session: Session{
		ID:                   id,
		ModuleID:             "lab1",
		Start:                start,
		End:                  start.Add(time.Duration(hours) * time.Hour),
		LeadStaffRequired:    1,
		SupportStaffRequired: 1,
	}}
}
