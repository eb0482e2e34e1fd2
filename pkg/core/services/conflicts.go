package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jakechorley/facilitator-allocator/internal/config"
	"github.com/jakechorley/facilitator-allocator/pkg/core/conflicts"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
	"github.com/jakechorley/facilitator-allocator/pkg/db"
)

// ConflictStore defines the database operations needed to check committed assignments
type ConflictStore interface {
	GetFacilitators(ctx context.Context) ([]model.Facilitator, error)
	GetSessions(ctx context.Context, filter db.SessionFilter) ([]model.Session, error)
	GetAssignments(ctx context.Context) ([]db.AssignmentRecord, error)
}

// ConflictsResult lists every conflict touching the selected sessions
type ConflictsResult struct {
	Conflicts []conflicts.Conflict

	// Checked is the number of assignments inspected
	Checked int
}

// DetectConflicts re-checks committed assignments for double-bookings and
// unavailability violations. A conflict is reported if any of its sessions
// matches the filter; sessions outside the filter still count as overlaps.
func DetectConflicts(
	ctx context.Context,
	store ConflictStore,
	cfg *config.Config,
	logger *zap.Logger,
	filter db.SessionFilter,
) (*ConflictsResult, error) {
	logger.Debug("Starting detectConflicts", zap.String("unit_id", filter.UnitID))

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	facilitators, err := store.GetFacilitators(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch facilitators: %w", err)
	}

	sessions, err := store.GetSessions(ctx, db.SessionFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	sessions = localizeSessions(sessions, loc)

	records, err := store.GetAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignments: %w", err)
	}
	logger.Debug("Loaded schedule",
		zap.Int("facilitators", len(facilitators)),
		zap.Int("sessions", len(sessions)),
		zap.Int("assignments", len(records)))

	detector, err := conflicts.NewDetector(sessions, facilitators)
	if err != nil {
		return nil, fmt.Errorf("failed to build conflict detector: %w", err)
	}

	selected := map[string]bool{}
	for _, s := range sessions {
		if filter.Matches(s) {
			selected[s.ID] = true
		}
	}

	result := &ConflictsResult{Conflicts: []conflicts.Conflict{}, Checked: len(records)}
	for _, c := range detector.Detect(assignmentsOf(records)) {
		for _, sessionID := range c.SessionIDs {
			if selected[sessionID] {
				result.Conflicts = append(result.Conflicts, c)
				break
			}
		}
	}

	logger.Info("Conflict check completed", zap.Int("conflicts", len(result.Conflicts)))
	return result, nil
}
