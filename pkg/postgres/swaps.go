package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
	"github.com/jakechorley/facilitator-allocator/pkg/db"
)

const swapColumns = `id, requester_assignment_id, target_assignment_id, status, requested_by, created_at,
	facilitator_confirmed, facilitator_confirmed_at, facilitator_decline_reason,
	coordinator_decline_reason, reviewed_at, reviewed_by`

// GetSwapRequests retrieves all swap requests, newest first
func (d *DB) GetSwapRequests(ctx context.Context) ([]model.SwapRequest, error) {
	return querySwapRequests(ctx, d.pool, `SELECT `+swapColumns+` FROM swap_request ORDER BY created_at DESC, id`)
}

func querySwapRequests(ctx context.Context, q querier, sql string, args ...any) ([]model.SwapRequest, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query swap requests: %w", err)
	}

	requests, err := pgx.CollectRows(rows, scanSwapRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to scan swap requests: %w", err)
	}
	return requests, nil
}

func scanSwapRequest(row pgx.CollectableRow) (model.SwapRequest, error) {
	var r model.SwapRequest
	var status string
	var facilitatorReason, coordinatorReason, reviewedBy *string
	err := row.Scan(&r.ID, &r.RequesterAssignmentID, &r.TargetAssignmentID, &status, &r.RequestedBy, &r.CreatedAt,
		&r.FacilitatorConfirmed, &r.FacilitatorConfirmedAt, &facilitatorReason,
		&coordinatorReason, &r.ReviewedAt, &reviewedBy)
	r.Status = model.SwapStatus(status)
	r.FacilitatorDeclineReason = derefString(facilitatorReason)
	r.CoordinatorDeclineReason = derefString(coordinatorReason)
	r.ReviewedBy = derefString(reviewedBy)
	return r, err
}

// swapTx implements db.SwapTx on a pgx transaction
type swapTx struct {
	q querier
}

func (t *swapTx) LockSwapRequest(ctx context.Context, id string) (model.SwapRequest, error) {
	requests, err := querySwapRequests(ctx, t.q, `SELECT `+swapColumns+` FROM swap_request WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return model.SwapRequest{}, err
	}
	if len(requests) == 0 {
		return model.SwapRequest{}, fmt.Errorf("swap request %s: %w", id, db.ErrNotFound)
	}
	return requests[0], nil
}

// LockAssignments locks rows in id order and returns them in the order asked for
func (t *swapTx) LockAssignments(ctx context.Context, ids ...string) ([]model.Assignment, error) {
	locked, err := queryAssignments(ctx, t.q, `
		SELECT `+assignmentColumns+`
		FROM assignment
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]model.Assignment, len(locked))
	for _, a := range locked {
		byID[a.ID] = a
	}
	result := make([]model.Assignment, 0, len(ids))
	for _, id := range ids {
		a, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("assignment %s: %w", id, db.ErrNotFound)
		}
		result = append(result, a)
	}
	return result, nil
}

func (t *swapTx) GetSwapRequestsForAssignments(ctx context.Context, assignmentIDs ...string) ([]model.SwapRequest, error) {
	return querySwapRequests(ctx, t.q, `
		SELECT `+swapColumns+`
		FROM swap_request
		WHERE requester_assignment_id = ANY($1) OR target_assignment_id = ANY($1)
		ORDER BY created_at, id
	`, assignmentIDs)
}

func (t *swapTx) GetAssignmentsForFacilitators(ctx context.Context, facilitatorIDs ...string) ([]model.Assignment, error) {
	return queryAssignments(ctx, t.q, `
		SELECT `+assignmentColumns+`
		FROM assignment
		WHERE facilitator_id = ANY($1)
		ORDER BY id
	`, facilitatorIDs)
}

func (t *swapTx) GetSessionsByID(ctx context.Context, ids ...string) ([]model.Session, error) {
	return getSessionsByID(ctx, t.q, ids)
}

func (t *swapTx) GetFacilitatorsByID(ctx context.Context, ids ...string) ([]model.Facilitator, error) {
	return getFacilitators(ctx, t.q, ids)
}

func (t *swapTx) InsertSwapRequest(ctx context.Context, r model.SwapRequest) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO swap_request (id, requester_assignment_id, target_assignment_id, status, requested_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, r.ID, r.RequesterAssignmentID, r.TargetAssignmentID, string(r.Status), r.RequestedBy, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert swap request %s: %w", r.ID, err)
	}
	return nil
}

func (t *swapTx) UpdateSwapRequest(ctx context.Context, r model.SwapRequest) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE swap_request
		SET status = $2,
		    facilitator_confirmed = $3,
		    facilitator_confirmed_at = $4,
		    facilitator_decline_reason = $5,
		    coordinator_decline_reason = $6,
		    reviewed_at = $7,
		    reviewed_by = $8
		WHERE id = $1
	`, r.ID, string(r.Status), r.FacilitatorConfirmed, r.FacilitatorConfirmedAt, nullString(r.FacilitatorDeclineReason),
		nullString(r.CoordinatorDeclineReason), r.ReviewedAt, nullString(r.ReviewedBy))
	if err != nil {
		return fmt.Errorf("failed to update swap request %s: %w", r.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("swap request %s: %w", r.ID, db.ErrNotFound)
	}
	return nil
}

func (t *swapTx) UpdateAssignments(ctx context.Context, assignments []model.Assignment) error {
	for _, a := range assignments {
		tag, err := t.q.Exec(ctx, `
			UPDATE assignment SET facilitator_id = $2, is_confirmed = $3 WHERE id = $1
		`, a.ID, a.FacilitatorID, a.IsConfirmed)
		if err != nil {
			return fmt.Errorf("failed to update assignment %s: %w", a.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("assignment %s: %w", a.ID, db.ErrNotFound)
		}
	}
	return nil
}
