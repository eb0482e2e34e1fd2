package db

import (
	"time"

	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

// AllocationRun records one committed allocation run
type AllocationRun struct {
	ID        string
	UnitID    string
	CreatedAt time.Time

	// Success is false when the run was committed with force despite conflicts
	Success        bool
	Forced         bool
	AvgScore       float64
	UnstaffedSlots int
}

// AssignmentRecord is an assignment with where it came from
type AssignmentRecord struct {
	model.Assignment

	// RunID is empty for assignments not created by the allocator
	RunID string

	// Score is the winning score, nil for assignments not created by the allocator
	Score *float64

	CreatedAt time.Time
}

// SessionFilter narrows a session query. Zero fields do not filter.
type SessionFilter struct {
	UnitID string
	From   time.Time
	To     time.Time
}

// Matches returns true if the session passes the filter
func (f SessionFilter) Matches(session model.Session) bool {
	if f.UnitID != "" && session.UnitID != f.UnitID {
		return false
	}
	if !f.From.IsZero() && session.End.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && session.Start.After(f.To) {
		return false
	}
	return true
}
