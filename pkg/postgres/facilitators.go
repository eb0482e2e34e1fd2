package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

// GetFacilitators retrieves every facilitator with skills and unavailability
func (d *DB) GetFacilitators(ctx context.Context) ([]model.Facilitator, error) {
	return getFacilitators(ctx, d.pool, nil)
}

// getFacilitators loads facilitators, restricted to ids when ids is non-nil
func getFacilitators(ctx context.Context, q querier, ids []string) ([]model.Facilitator, error) {
	filter, args := "", []any{}
	if ids != nil {
		filter, args = "WHERE id = ANY($1)", []any{ids}
	}

	rows, err := q.Query(ctx, `
		SELECT id, name, email, min_hours, max_hours, historical_assignment_count,
		       skill_tags, preferred_times, preferred_session_types
		FROM facilitator
		`+filter+`
		ORDER BY id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query facilitators: %w", err)
	}
	defer rows.Close()

	var facilitators []model.Facilitator
	index := make(map[string]int)
	for rows.Next() {
		var f model.Facilitator
		var times []string
		if err := rows.Scan(&f.ID, &f.Name, &f.Email, &f.MinHours, &f.MaxHours, &f.HistoricalAssignmentCount,
			&f.SkillTags, &times, &f.Preferences.SessionTypes); err != nil {
			return nil, fmt.Errorf("failed to scan facilitator: %w", err)
		}
		for _, t := range times {
			f.Preferences.TimesOfDay = append(f.Preferences.TimesOfDay, model.TimeOfDay(t))
		}
		f.Skills = map[string]model.SkillLevel{}
		index[f.ID] = len(facilitators)
		facilitators = append(facilitators, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating facilitators: %w", err)
	}

	if err := loadSkills(ctx, q, filter, args, facilitators, index); err != nil {
		return nil, err
	}
	if err := loadUnavailability(ctx, q, filter, args, facilitators, index); err != nil {
		return nil, err
	}

	return facilitators, nil
}

func loadSkills(ctx context.Context, q querier, filter string, args []any, facilitators []model.Facilitator, index map[string]int) error {
	if filter != "" {
		filter = "WHERE facilitator_id = ANY($1)"
	}
	rows, err := q.Query(ctx, `
		SELECT facilitator_id, module_id, skill_level
		FROM facilitator_skill
		`+filter, args...)
	if err != nil {
		return fmt.Errorf("failed to query facilitator skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var facilitatorID, moduleID, levelName string
		if err := rows.Scan(&facilitatorID, &moduleID, &levelName); err != nil {
			return fmt.Errorf("failed to scan facilitator skill: %w", err)
		}
		level, err := model.ParseSkillLevel(levelName)
		if err != nil {
			return fmt.Errorf("facilitator %s module %s: %w", facilitatorID, moduleID, err)
		}
		if i, ok := index[facilitatorID]; ok {
			facilitators[i].Skills[moduleID] = level
		}
	}
	return rows.Err()
}

func loadUnavailability(ctx context.Context, q querier, filter string, args []any, facilitators []model.Facilitator, index map[string]int) error {
	if filter != "" {
		filter = "WHERE facilitator_id = ANY($1)"
	}
	rows, err := q.Query(ctx, `
		SELECT id, facilitator_id, unit_id, date, is_full_day, start_minute, end_minute,
		       recurrence_frequency, recurrence_interval, recurrence_until, reason
		FROM unavailability
		`+filter+`
		ORDER BY facilitator_id, date, id
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to query unavailability: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u model.Unavailability
		var unitID, frequency *string
		var startMinute, endMinute *int
		var interval int
		var until *time.Time
		if err := rows.Scan(&u.ID, &u.FacilitatorID, &unitID, &u.Date, &u.IsFullDay, &startMinute, &endMinute,
			&frequency, &interval, &until, &u.Reason); err != nil {
			return fmt.Errorf("failed to scan unavailability: %w", err)
		}

		u.UnitID = derefString(unitID)
		if startMinute != nil {
			u.StartTime = time.Duration(*startMinute) * time.Minute
		}
		if endMinute != nil {
			u.EndTime = time.Duration(*endMinute) * time.Minute
		}
		if frequency != nil {
			u.Recurrence = &model.Recurrence{Frequency: model.Frequency(*frequency), Interval: interval}
			if until != nil {
				u.Recurrence.Until = *until
			}
		}

		if i, ok := index[u.FacilitatorID]; ok {
			facilitators[i].Unavailability = append(facilitators[i].Unavailability, u)
		}
	}
	return rows.Err()
}
