package services

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/facilitator-allocator/internal/config"
	"github.com/jakechorley/facilitator-allocator/pkg/core/conflicts"
)

// AllocateUnitsResult contains one result per unit plus conflicts between units
type AllocateUnitsResult struct {
	Units []*AllocateResult

	// CrossUnitConflicts are conflicts between assignments created by different
	// unit runs. Each unit is planned against the same snapshot, so runs cannot
	// see each other's choices.
	CrossUnitConflicts []conflicts.Conflict
}

// Success returns true if every unit run and the combined schedule are conflict free
func (r *AllocateUnitsResult) Success() bool {
	if len(r.CrossUnitConflicts) > 0 {
		return false
	}
	for _, unit := range r.Units {
		if !unit.Outcome.Success {
			return false
		}
	}
	return true
}

// AllocateUnits plans one independent run per unit concurrently, checks the
// combined schedule, then commits each unit in its own transaction. Nothing is
// saved when units conflict with each other unless opts.ForceCommit is set.
func AllocateUnits(
	ctx context.Context,
	store AllocateStore,
	cfg *config.Config,
	logger *zap.Logger,
	unitIDs []string,
	opts AllocateOptions,
) (*AllocateUnitsResult, error) {
	logger.Debug("Starting allocateUnits", zap.Strings("unit_ids", unitIDs))

	if len(unitIDs) == 0 {
		return nil, fmt.Errorf("no units to allocate")
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	snap, err := loadSnapshot(ctx, store, loc, logger)
	if err != nil {
		return nil, err
	}

	now := opts.now()
	results := make([]*AllocateResult, len(unitIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, unitID := range unitIDs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			filter := opts.Filter
			filter.UnitID = unitID

			result, err := planAllocation(snap, cfg, filter, loc, logger.With(zap.String("unit_id", unitID)), now)
			if err != nil {
				return fmt.Errorf("unit %s: %w", unitID, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	crossConflicts, err := crossUnitConflicts(snap, results)
	if err != nil {
		return nil, err
	}
	for _, c := range crossConflicts {
		logger.Warn("Cross-unit conflict",
			zap.String("facilitator_id", c.FacilitatorID),
			zap.String("description", c.Description))
	}

	combined := &AllocateUnitsResult{Units: results, CrossUnitConflicts: crossConflicts}

	if len(crossConflicts) > 0 && !opts.ForceCommit && !opts.DryRun {
		logger.Warn("Units conflict with each other - nothing saved (use force commit to save anyway)",
			zap.Int("conflicts", len(crossConflicts)))
		return combined, nil
	}

	for _, result := range results {
		if err := commitAllocation(ctx, store, result, opts, logger.With(zap.String("unit_id", result.UnitID))); err != nil {
			return nil, fmt.Errorf("unit %s: %w", result.UnitID, err)
		}
	}

	return combined, nil
}

// crossUnitConflicts re-checks the snapshot plus every unit's new assignments and
// keeps conflicts that involve new assignments from more than one unit
func crossUnitConflicts(snap *snapshot, results []*AllocateResult) ([]conflicts.Conflict, error) {
	detector, err := conflicts.NewDetector(snap.sessions, snap.facilitators)
	if err != nil {
		return nil, fmt.Errorf("failed to build conflict detector: %w", err)
	}

	unitOf := map[string]string{}
	combined := assignmentsOf(snap.assignments)
	for _, result := range results {
		for _, record := range result.Created {
			unitOf[record.ID] = result.UnitID
			combined = append(combined, record.Assignment)
		}
	}

	var found []conflicts.Conflict
	for _, c := range detector.DoubleBookings(combined) {
		if spansUnits(c, unitOf) {
			found = append(found, c)
		}
	}
	return found, nil
}

func spansUnits(c conflicts.Conflict, unitOf map[string]string) bool {
	units := map[string]bool{}
	for _, id := range c.AssignmentIDs {
		if unit, ok := unitOf[id]; ok {
			units[unit] = true
		}
	}
	return len(units) > 1
}
