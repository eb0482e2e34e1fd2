package db

import (
	"context"
	"errors"

	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

// FacilitatorStore reads facilitators with their skills and unavailability
type FacilitatorStore interface {
	GetFacilitators(ctx context.Context) ([]model.Facilitator, error)
}

// ScheduleStore reads units, modules and sessions
type ScheduleStore interface {
	GetUnits(ctx context.Context) ([]model.Unit, error)
	GetModules(ctx context.Context) ([]model.Module, error)
	GetSessions(ctx context.Context, filter SessionFilter) ([]model.Session, error)
}

// AssignmentStore reads assignments and commits allocation runs
type AssignmentStore interface {
	GetAssignments(ctx context.Context) ([]AssignmentRecord, error)

	// InsertAllocationRun stores the run and its assignments in one transaction
	InsertAllocationRun(ctx context.Context, run AllocationRun, assignments []AssignmentRecord) error
}

// SwapStore reads swap requests and runs swap changes in a transaction
type SwapStore interface {
	GetSwapRequests(ctx context.Context) ([]model.SwapRequest, error)

	// InTx runs fn in a transaction, committing if it returns nil
	InTx(ctx context.Context, fn func(tx SwapTx) error) error
}

// SwapTx is the set of operations a swap change needs. Lock methods hold row
// locks until the transaction ends.
type SwapTx interface {
	LockSwapRequest(ctx context.Context, id string) (model.SwapRequest, error)
	LockAssignments(ctx context.Context, ids ...string) ([]model.Assignment, error)

	GetSwapRequestsForAssignments(ctx context.Context, assignmentIDs ...string) ([]model.SwapRequest, error)
	GetAssignmentsForFacilitators(ctx context.Context, facilitatorIDs ...string) ([]model.Assignment, error)
	GetSessionsByID(ctx context.Context, ids ...string) ([]model.Session, error)
	GetFacilitatorsByID(ctx context.Context, ids ...string) ([]model.Facilitator, error)

	InsertSwapRequest(ctx context.Context, request model.SwapRequest) error
	UpdateSwapRequest(ctx context.Context, request model.SwapRequest) error
	UpdateAssignments(ctx context.Context, assignments []model.Assignment) error
}

// Database defines the interface for all database operations
type Database interface {
	FacilitatorStore
	ScheduleStore
	AssignmentStore
	SwapStore
	RunMigrations(ctx context.Context) error
}

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")
