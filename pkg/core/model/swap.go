package model

import "time"

// SwapStatus is the state of a swap request
type SwapStatus string

const (
	SwapFacilitatorPending  SwapStatus = "facilitator_pending"
	SwapCoordinatorPending  SwapStatus = "coordinator_pending"
	SwapApproved            SwapStatus = "approved"
	SwapFacilitatorDeclined SwapStatus = "facilitator_declined"
	SwapCoordinatorDeclined SwapStatus = "coordinator_declined"

	// Legacy flat statuses, still present in older rows
	SwapLegacyPending  SwapStatus = "pending"
	SwapLegacyRejected SwapStatus = "rejected"
)

// Canonical maps legacy statuses onto the two-step workflow
func (s SwapStatus) Canonical() SwapStatus {
	switch s {
	case SwapLegacyPending:
		return SwapFacilitatorPending
	case SwapLegacyRejected:
		return SwapCoordinatorDeclined
	}
	return s
}

// IsTerminal returns true if no further transition is possible
func (s SwapStatus) IsTerminal() bool {
	switch s.Canonical() {
	case SwapApproved, SwapFacilitatorDeclined, SwapCoordinatorDeclined:
		return true
	}
	return false
}

func (s SwapStatus) IsValid() bool {
	switch s.Canonical() {
	case SwapFacilitatorPending, SwapCoordinatorPending, SwapApproved, SwapFacilitatorDeclined, SwapCoordinatorDeclined:
		return true
	}
	return false
}

// SwapRequest proposes exchanging the facilitators of two assignments
type SwapRequest struct {
	ID                    string
	RequesterAssignmentID string
	TargetAssignmentID    string
	Status                SwapStatus

	// RequestedBy is the facilitator who proposed the swap
	RequestedBy string
	CreatedAt   time.Time

	FacilitatorConfirmed     bool
	FacilitatorConfirmedAt   *time.Time
	FacilitatorDeclineReason string

	CoordinatorDeclineReason string
	ReviewedAt               *time.Time
	ReviewedBy               string
}

// References returns true if the request involves the given assignment
func (r *SwapRequest) References(assignmentID string) bool {
	return r.RequesterAssignmentID == assignmentID || r.TargetAssignmentID == assignmentID
}
