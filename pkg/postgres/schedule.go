package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
	"github.com/jakechorley/facilitator-allocator/pkg/db"
)

// GetUnits retrieves all units
func (d *DB) GetUnits(ctx context.Context) ([]model.Unit, error) {
	rows, err := d.pool.Query(ctx, `SELECT id, code, name FROM unit ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to query units: %w", err)
	}

	units, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Unit, error) {
		var u model.Unit
		err := row.Scan(&u.ID, &u.Code, &u.Name)
		return u, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan units: %w", err)
	}
	return units, nil
}

// GetModules retrieves all modules
func (d *DB) GetModules(ctx context.Context) ([]model.Module, error) {
	rows, err := d.pool.Query(ctx, `SELECT id, unit_id, name FROM module ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query modules: %w", err)
	}

	modules, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Module, error) {
		var m model.Module
		err := row.Scan(&m.ID, &m.UnitID, &m.Name)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan modules: %w", err)
	}
	return modules, nil
}

const sessionColumns = `id, module_id, unit_id, session_type, start_time, end_time,
	lead_staff_required, support_staff_required, required_skills, location`

// GetSessions retrieves sessions matching the filter, ordered by start time
func (d *DB) GetSessions(ctx context.Context, filter db.SessionFilter) ([]model.Session, error) {
	var from, to *time.Time
	if !filter.From.IsZero() {
		from = &filter.From
	}
	if !filter.To.IsZero() {
		to = &filter.To
	}

	rows, err := d.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM session
		WHERE ($1 = '' OR unit_id = $1)
		  AND ($2::timestamptz IS NULL OR end_time >= $2)
		  AND ($3::timestamptz IS NULL OR start_time <= $3)
		ORDER BY start_time, id
	`, filter.UnitID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}

	return collectSessions(rows)
}

func getSessionsByID(ctx context.Context, q querier, ids []string) ([]model.Session, error) {
	rows, err := q.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM session
		WHERE id = ANY($1)
		ORDER BY start_time, id
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}

	return collectSessions(rows)
}

func collectSessions(rows pgx.Rows) ([]model.Session, error) {
	sessions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Session, error) {
		var s model.Session
		err := row.Scan(&s.ID, &s.ModuleID, &s.UnitID, &s.SessionType, &s.Start, &s.End,
			&s.LeadStaffRequired, &s.SupportStaffRequired, &s.RequiredSkills, &s.Location)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}
	return sessions, nil
}
