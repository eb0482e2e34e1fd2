package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/facilitator-allocator/internal/config"
	"github.com/jakechorley/facilitator-allocator/pkg/core/conflicts"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
	"github.com/jakechorley/facilitator-allocator/pkg/core/swap"
	"github.com/jakechorley/facilitator-allocator/pkg/db"
)

// Notifier sends swap notification emails
type Notifier interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SwapStore defines the database operations needed for swap requests
type SwapStore interface {
	GetSwapRequests(ctx context.Context) ([]model.SwapRequest, error)
	InTx(ctx context.Context, fn func(tx db.SwapTx) error) error
}

// FailedEmail records a notification that could not be sent
type FailedEmail struct {
	FacilitatorID string
	Email         string
	Error         string
}

// SwapResult is the stored request after a change, plus what happened around it
type SwapResult struct {
	Request model.SwapRequest

	// Applied holds the two assignments after an approval, nil otherwise
	Applied []model.Assignment

	// Notified lists the facilitator IDs that were emailed
	Notified     []string
	FailedEmails []FailedEmail
}

// swapParty is a facilitator to notify after a change
type swapParty struct {
	facilitator model.Facilitator
	session     model.Session
}

// ProposeSwap creates a facilitator_pending request for actor's assignment and
// another facilitator's assignment. The target facilitator is emailed if
// notifier is not nil.
func ProposeSwap(
	ctx context.Context,
	store SwapStore,
	notifier Notifier,
	cfg *config.Config,
	logger *zap.Logger,
	actor swap.Actor,
	requesterAssignmentID string,
	targetAssignmentID string,
	now time.Time,
) (*SwapResult, error) {
	logger.Debug("Starting proposeSwap",
		zap.String("actor_id", actor.ID),
		zap.String("requester_assignment_id", requesterAssignmentID),
		zap.String("target_assignment_id", targetAssignmentID))

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	var request model.SwapRequest
	var notify []swapParty

	err = store.InTx(ctx, func(tx db.SwapTx) error {
		locked, err := tx.LockAssignments(ctx, requesterAssignmentID, targetAssignmentID)
		if err != nil {
			return fmt.Errorf("failed to lock assignments: %w", err)
		}
		requester, target := locked[0], locked[1]

		sessions, err := sessionsByID(ctx, tx, loc, requester.SessionID, target.SessionID)
		if err != nil {
			return err
		}

		existing, err := tx.GetSwapRequestsForAssignments(ctx, requester.ID, target.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch swap requests: %w", err)
		}
		logger.Debug("Found existing swap requests", zap.Int("count", len(existing)))

		request, err = swap.Propose(swap.Proposal{
			ID:               uuid.New().String(),
			Actor:            actor,
			Requester:        requester,
			Target:           target,
			RequesterSession: sessions[requester.SessionID],
			TargetSession:    sessions[target.SessionID],
			Existing:         existing,
			Now:              now,
		})
		if err != nil {
			return err
		}

		if err := tx.InsertSwapRequest(ctx, request); err != nil {
			return fmt.Errorf("failed to insert swap request: %w", err)
		}

		facilitators, err := tx.GetFacilitatorsByID(ctx, target.FacilitatorID)
		if err != nil {
			return fmt.Errorf("failed to fetch facilitators: %w", err)
		}
		if f, ok := facilitatorsByID(facilitators)[target.FacilitatorID]; ok {
			notify = append(notify, swapParty{facilitator: f, session: sessions[target.SessionID]})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Swap request created",
		zap.String("swap_request_id", request.ID),
		zap.String("status", string(request.Status)))

	result := &SwapResult{Request: request}
	sendSwapEmails(ctx, notifier, logger, result, notify)
	return result, nil
}

// DecideSwap applies a confirm, decline, approve or reject to a stored request.
// On approval the two assignments exchange facilitators in the same transaction.
// Rejected transitions return an error matching model.ErrStateConflict and
// change nothing.
func DecideSwap(
	ctx context.Context,
	store SwapStore,
	notifier Notifier,
	cfg *config.Config,
	logger *zap.Logger,
	requestID string,
	decision swap.Decision,
) (*SwapResult, error) {
	logger.Debug("Starting decideSwap",
		zap.String("swap_request_id", requestID),
		zap.String("action", string(decision.Action)),
		zap.String("actor_kind", string(decision.Actor.Kind)),
		zap.String("actor_id", decision.Actor.ID))

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	result := &SwapResult{}
	var notify []swapParty

	err = store.InTx(ctx, func(tx db.SwapTx) error {
		request, err := tx.LockSwapRequest(ctx, requestID)
		if err != nil {
			return fmt.Errorf("failed to lock swap request: %w", err)
		}

		locked, err := tx.LockAssignments(ctx, request.RequesterAssignmentID, request.TargetAssignmentID)
		if err != nil {
			return fmt.Errorf("failed to lock assignments: %w", err)
		}
		requester, target := locked[0], locked[1]

		schedule, err := tx.GetAssignmentsForFacilitators(ctx, requester.FacilitatorID, target.FacilitatorID)
		if err != nil {
			return fmt.Errorf("failed to fetch facilitator schedules: %w", err)
		}
		logger.Debug("Loaded facilitator schedules", zap.Int("assignments", len(schedule)))

		sessionIDs := []string{requester.SessionID, target.SessionID}
		for _, a := range schedule {
			sessionIDs = append(sessionIDs, a.SessionID)
		}
		sessions, err := sessionsByID(ctx, tx, loc, sessionIDs...)
		if err != nil {
			return err
		}

		facilitators, err := tx.GetFacilitatorsByID(ctx, requester.FacilitatorID, target.FacilitatorID)
		if err != nil {
			return fmt.Errorf("failed to fetch facilitators: %w", err)
		}

		sessionList := make([]model.Session, 0, len(sessions))
		for _, s := range sessions {
			sessionList = append(sessionList, s)
		}
		detector, err := conflicts.NewDetector(sessionList, facilitators)
		if err != nil {
			return fmt.Errorf("failed to build conflict detector: %w", err)
		}

		transition, err := swap.Transition(request, decision, swap.Parties{
			Requester:        requester,
			Target:           target,
			RequesterSession: sessions[requester.SessionID],
			TargetSession:    sessions[target.SessionID],
			Schedule:         schedule,
			Detector:         detector,
		})
		if err != nil {
			return err
		}

		if err := tx.UpdateSwapRequest(ctx, transition.Request); err != nil {
			return fmt.Errorf("failed to update swap request: %w", err)
		}
		result.Request = transition.Request

		if transition.Instruction != nil {
			applied := transition.Instruction.Apply([]model.Assignment{requester, target})
			if err := tx.UpdateAssignments(ctx, applied); err != nil {
				return fmt.Errorf("failed to apply swap: %w", err)
			}
			result.Applied = applied
		}

		byID := facilitatorsByID(facilitators)
		for _, a := range []model.Assignment{requester, target} {
			if f, ok := byID[a.FacilitatorID]; ok {
				notify = append(notify, swapParty{facilitator: f, session: sessions[a.SessionID]})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Swap request updated",
		zap.String("swap_request_id", result.Request.ID),
		zap.String("status", string(result.Request.Status)),
		zap.Bool("applied", result.Applied != nil))

	sendSwapEmails(ctx, notifier, logger, result, notify)
	return result, nil
}

// ListSwaps returns stored swap requests. A non-empty status keeps only requests
// in that status, with legacy statuses matched by their canonical form.
func ListSwaps(ctx context.Context, store SwapStore, logger *zap.Logger, status model.SwapStatus) ([]model.SwapRequest, error) {
	logger.Debug("Fetching swap requests", zap.String("status", string(status)))

	requests, err := store.GetSwapRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch swap requests: %w", err)
	}

	if status == "" {
		return requests, nil
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("unknown swap status %q", status)
	}

	filtered := []model.SwapRequest{}
	for _, r := range requests {
		if r.Status.Canonical() == status.Canonical() {
			filtered = append(filtered, r)
		}
	}
	logger.Debug("Filtered swap requests", zap.Int("count", len(filtered)))
	return filtered, nil
}

// sessionsByID loads sessions inside the transaction, converted to loc
func sessionsByID(ctx context.Context, tx db.SwapTx, loc *time.Location, ids ...string) (map[string]model.Session, error) {
	sessions, err := tx.GetSessionsByID(ctx, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	byID := make(map[string]model.Session, len(sessions))
	for _, s := range localizeSessions(sessions, loc) {
		byID[s.ID] = s
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("session %s: %w", id, db.ErrNotFound)
		}
	}
	return byID, nil
}

// sendSwapEmails notifies each party after commit. Failures are logged and
// recorded but do not undo the change.
func sendSwapEmails(ctx context.Context, notifier Notifier, logger *zap.Logger, result *SwapResult, parties []swapParty) {
	if notifier == nil {
		logger.Debug("Notifications disabled")
		return
	}

	request := result.Request
	for _, party := range parties {
		f := party.facilitator
		if f.Email == "" {
			logger.Warn("Facilitator has no email - skipping notification", zap.String("facilitator_id", f.ID))
			continue
		}

		subject := fmt.Sprintf("Swap request %s", swapStatusText(request.Status))
		body := fmt.Sprintf("Hi %s\n\nA swap request involving your session on %s is now %s.\nRequest ID: %s\n",
			f.Name, party.session.Start.Format("Mon 2 Jan 15:04"), swapStatusText(request.Status), request.ID)

		logger.Info("Sending swap email",
			zap.String("facilitator_id", f.ID),
			zap.String("email", f.Email))

		if err := notifier.SendEmail(ctx, f.Email, subject, body); err != nil {
			logger.Warn("Failed to send swap email",
				zap.String("facilitator_id", f.ID),
				zap.String("email", f.Email),
				zap.Error(err))
			result.FailedEmails = append(result.FailedEmails, FailedEmail{
				FacilitatorID: f.ID,
				Email:         f.Email,
				Error:         err.Error(),
			})
			continue
		}
		result.Notified = append(result.Notified, f.ID)
	}
}

func swapStatusText(status model.SwapStatus) string {
	switch status.Canonical() {
	case model.SwapFacilitatorPending:
		return "awaiting your confirmation"
	case model.SwapCoordinatorPending:
		return "awaiting coordinator approval"
	case model.SwapApproved:
		return "approved"
	case model.SwapFacilitatorDeclined:
		return "declined by the facilitator"
	case model.SwapCoordinatorDeclined:
		return "declined by the coordinator"
	}
	return string(status)
}
