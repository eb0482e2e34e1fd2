package model

import (
	"errors"
	"fmt"
	"strings"
)

// Error classes surfaced to callers. Match with errors.Is.
var (
	ErrValidation     = errors.New("validation error")
	ErrInfeasibleSlot = errors.New("infeasible slot")
	ErrStateConflict  = errors.New("state conflict")
)

// ValidationError aggregates every problem found in the input to a run.
// A run is never attempted when one is returned.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d problem(s): %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Add records a problem
func (e *ValidationError) Add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// ErrOrNil returns e if any problem was recorded, nil otherwise
func (e *ValidationError) ErrOrNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

// StateConflictError rejects a swap transition. No state was changed.
type StateConflictError struct {
	SwapRequestID string
	Status        SwapStatus
	Reason        string
}

func (e *StateConflictError) Error() string {
	switch {
	case e.SwapRequestID == "":
		return fmt.Sprintf("swap request rejected: %s", e.Reason)
	case e.Status == "":
		return fmt.Sprintf("swap request %s: %s", e.SwapRequestID, e.Reason)
	}
	return fmt.Sprintf("swap request %s (%s): %s", e.SwapRequestID, e.Status, e.Reason)
}

func (e *StateConflictError) Is(target error) bool {
	return target == ErrStateConflict
}

// ErrorKind classifies an error for presentation: "validation", "infeasible_slot",
// "state_conflict" or "internal".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrInfeasibleSlot):
		return "infeasible_slot"
	case errors.Is(err, ErrStateConflict):
		return "state_conflict"
	}
	return "internal"
}
