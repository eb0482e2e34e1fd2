package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
	"github.com/jakechorley/facilitator-allocator/pkg/db"
)

const assignmentColumns = `id, session_id, facilitator_id, role, is_confirmed`

// GetAssignments retrieves all assignment records in creation order
func (d *DB) GetAssignments(ctx context.Context) ([]db.AssignmentRecord, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+assignmentColumns+`, run_id, score, created_at
		FROM assignment
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (db.AssignmentRecord, error) {
		var r db.AssignmentRecord
		var role string
		var runID *string
		err := row.Scan(&r.ID, &r.SessionID, &r.FacilitatorID, &role, &r.IsConfirmed, &runID, &r.Score, &r.CreatedAt)
		r.Role = model.Role(role)
		r.RunID = derefString(runID)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan assignments: %w", err)
	}
	return records, nil
}

// InsertAllocationRun inserts the run and its assignments in a single transaction.
// Nothing is stored if any insert fails.
func (d *DB) InsertAllocationRun(ctx context.Context, run db.AllocationRun, assignments []db.AssignmentRecord) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	batch.Queue(`
		INSERT INTO allocation_run (id, unit_id, created_at, success, forced, avg_score, unstaffed_slots)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, run.ID, nullString(run.UnitID), run.CreatedAt, run.Success, run.Forced, run.AvgScore, run.UnstaffedSlots)

	for _, a := range assignments {
		batch.Queue(`
			INSERT INTO assignment (id, session_id, facilitator_id, role, is_confirmed, run_id, score, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, a.ID, a.SessionID, a.FacilitatorID, string(a.Role), a.IsConfirmed, nullString(a.RunID), a.Score, a.CreatedAt)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert allocation run %s: %w", run.ID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func queryAssignments(ctx context.Context, q querier, sql string, args ...any) ([]model.Assignment, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}

	assignments, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Assignment, error) {
		var a model.Assignment
		var role string
		err := row.Scan(&a.ID, &a.SessionID, &a.FacilitatorID, &role, &a.IsConfirmed)
		a.Role = model.Role(role)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan assignments: %w", err)
	}
	return assignments, nil
}
