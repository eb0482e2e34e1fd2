package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/facilitator-allocator/internal/config"
	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
	"github.com/jakechorley/facilitator-allocator/pkg/core/report"
	"github.com/jakechorley/facilitator-allocator/pkg/db"
)

// AllocateStore defines the database operations needed for an allocation run
type AllocateStore interface {
	GetFacilitators(ctx context.Context) ([]model.Facilitator, error)
	GetModules(ctx context.Context) ([]model.Module, error)
	GetSessions(ctx context.Context, filter db.SessionFilter) ([]model.Session, error)
	GetAssignments(ctx context.Context) ([]db.AssignmentRecord, error)
	InsertAllocationRun(ctx context.Context, run db.AllocationRun, assignments []db.AssignmentRecord) error
}

// AllocateOptions selects the sessions to staff and how the result is stored
type AllocateOptions struct {
	// Filter selects the sessions of the run. Other sessions only contribute the
	// facilitator time their assignments already occupy.
	Filter db.SessionFilter

	// DryRun computes the allocation without saving it
	DryRun bool

	// ForceCommit saves the allocation even if the committed schedule has conflicts
	ForceCommit bool

	// Now stamps the run. Zero uses the current time.
	Now time.Time
}

func (o AllocateOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// AllocateResult contains one run's outcome and the records it created
type AllocateResult struct {
	RunID   string
	UnitID  string
	Outcome *allocator.AllocationOutcome

	// Created holds the assignments this run created, with IDs and winning scores
	Created []db.AssignmentRecord

	// Saved is true when the run was written to the database
	Saved bool

	Facilitators []model.Facilitator
	Modules      []model.Module
	Sessions     []model.Session

	// Existing holds the assignments already on the run's sessions before the run
	Existing []model.Assignment
}

// ReportSource returns the report input covering the run's sessions
func (r *AllocateResult) ReportSource() report.Source {
	assignments := make([]model.Assignment, 0, len(r.Existing)+len(r.Created))
	assignments = append(assignments, r.Existing...)
	scores := make(map[string]float64, len(r.Created))
	for _, record := range r.Created {
		assignments = append(assignments, record.Assignment)
		if record.Score != nil {
			scores[record.ID] = *record.Score
		}
	}

	return report.Source{
		Facilitators: r.Facilitators,
		Sessions:     r.Sessions,
		Modules:      r.Modules,
		Assignments:  assignments,
		Scores:       scores,
		Unstaffed:    r.Outcome.Unstaffed,
	}
}

// snapshot is everything read from the store before planning
type snapshot struct {
	facilitators []model.Facilitator
	modules      []model.Module
	sessions     []model.Session
	assignments  []db.AssignmentRecord
}

// Allocate runs the allocator over the sessions selected by opts.Filter.
// If opts.DryRun is true, nothing is saved.
// If opts.ForceCommit is true, the run is saved even if it has conflicts.
func Allocate(
	ctx context.Context,
	store AllocateStore,
	cfg *config.Config,
	logger *zap.Logger,
	opts AllocateOptions,
) (*AllocateResult, error) {
	logger.Debug("Starting allocate",
		zap.String("unit_id", opts.Filter.UnitID),
		zap.Bool("dry_run", opts.DryRun),
		zap.Bool("force_commit", opts.ForceCommit))

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	snap, err := loadSnapshot(ctx, store, loc, logger)
	if err != nil {
		return nil, err
	}

	result, err := planAllocation(snap, cfg, opts.Filter, loc, logger, opts.now())
	if err != nil {
		return nil, err
	}

	if err := commitAllocation(ctx, store, result, opts, logger); err != nil {
		return nil, err
	}

	return result, nil
}

// loadSnapshot reads facilitators, modules, sessions and assignments. Session
// times are converted to loc so full-day unavailability uses local dates.
func loadSnapshot(ctx context.Context, store AllocateStore, loc *time.Location, logger *zap.Logger) (*snapshot, error) {
	logger.Debug("Fetching facilitators")
	facilitators, err := store.GetFacilitators(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch facilitators: %w", err)
	}
	logger.Debug("Found facilitators", zap.Int("count", len(facilitators)))

	logger.Debug("Fetching modules")
	modules, err := store.GetModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch modules: %w", err)
	}

	logger.Debug("Fetching sessions")
	sessions, err := store.GetSessions(ctx, db.SessionFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	logger.Debug("Found sessions", zap.Int("count", len(sessions)))

	logger.Debug("Fetching assignments")
	assignments, err := store.GetAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assignments: %w", err)
	}
	logger.Debug("Found assignments", zap.Int("count", len(assignments)))

	return &snapshot{
		facilitators: facilitators,
		modules:      modules,
		sessions:     localizeSessions(sessions, loc),
		assignments:  assignments,
	}, nil
}

// planAllocation runs the allocator on a snapshot. It does not touch the store
// and is safe to call concurrently on the same snapshot.
func planAllocation(
	snap *snapshot,
	cfg *config.Config,
	filter db.SessionFilter,
	loc *time.Location,
	logger *zap.Logger,
	now time.Time,
) (*AllocateResult, error) {
	var runSessions, contextSessions []model.Session
	inRun := map[string]bool{}
	for _, s := range snap.sessions {
		if filter.Matches(s) {
			runSessions = append(runSessions, s)
			inRun[s.ID] = true
		}
	}
	if len(runSessions) == 0 {
		return nil, fmt.Errorf("no sessions found for unit %q in the selected range", filter.UnitID)
	}

	referenced := map[string]bool{}
	existing := make([]model.Assignment, 0, len(snap.assignments))
	var existingOnRun []model.Assignment
	for _, record := range snap.assignments {
		existing = append(existing, record.Assignment)
		referenced[record.SessionID] = true
		if inRun[record.SessionID] {
			existingOnRun = append(existingOnRun, record.Assignment)
		}
	}
	for _, s := range snap.sessions {
		if !inRun[s.ID] && referenced[s.ID] {
			contextSessions = append(contextSessions, s)
		}
	}
	logger.Debug("Selected sessions",
		zap.String("unit_id", filter.UnitID),
		zap.Int("run_sessions", len(runSessions)),
		zap.Int("context_sessions", len(contextSessions)),
		zap.Int("existing_assignments", len(existing)))

	policy := BuildPolicy(cfg.Scoring)
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring policy: %w", err)
	}

	overrides, err := convertSessionOverrides(cfg.SessionOverrides, runSessions, loc, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to convert session overrides: %w", err)
	}

	allocConfig := allocator.AllocationConfig{
		Criteria:            policy.Build(),
		Facilitators:        snap.facilitators,
		Sessions:            runSessions,
		ContextSessions:     contextSessions,
		ExistingAssignments: existing,
		Modules:             snap.modules,
		Overrides:           overrides,
		Selection:           BuildSelection(cfg.Scoring),
	}

	logger.Info("Running allocation algorithm", zap.String("unit_id", filter.UnitID))
	outcome, err := allocator.Allocate(allocConfig)
	if err != nil {
		return nil, fmt.Errorf("allocation failed: %w", err)
	}

	logger.Info("Allocation completed",
		zap.String("unit_id", filter.UnitID),
		zap.Bool("success", outcome.Success),
		zap.Int("assignments", len(outcome.Assignments)),
		zap.Int("unstaffed_slots", len(outcome.Unstaffed)),
		zap.Int("conflicts", len(outcome.Conflicts)),
		zap.Int("preexisting_conflicts", len(outcome.PreexistingConflicts)),
		zap.Float64("avg_score", outcome.Metrics.AvgScore))

	for _, slot := range outcome.Unstaffed {
		logger.Warn("Unstaffed slot",
			zap.String("session_id", slot.SessionID),
			zap.String("role", string(slot.Role)),
			zap.Error(slot.Err()))
	}
	for _, c := range outcome.Conflicts {
		logger.Warn("Conflict",
			zap.String("kind", string(c.Kind)),
			zap.String("facilitator_id", c.FacilitatorID),
			zap.String("description", c.Description))
	}
	for _, c := range outcome.PreexistingConflicts {
		logger.Warn("Preexisting conflict in saved assignments",
			zap.String("kind", string(c.Kind)),
			zap.String("facilitator_id", c.FacilitatorID),
			zap.String("description", c.Description))
	}

	runID := uuid.New().String()
	created := make([]db.AssignmentRecord, len(outcome.Assignments))
	for i, committed := range outcome.Assignments {
		assignment := committed.Assignment()
		assignment.ID = uuid.New().String()
		score := committed.Score.Total
		created[i] = db.AssignmentRecord{
			Assignment: assignment,
			RunID:      runID,
			Score:      &score,
			CreatedAt:  now,
		}
	}

	return &AllocateResult{
		RunID:        runID,
		UnitID:       filter.UnitID,
		Outcome:      outcome,
		Created:      created,
		Facilitators: snap.facilitators,
		Modules:      snap.modules,
		Sessions:     runSessions,
		Existing:     existingOnRun,
	}, nil
}

// commitAllocation saves a planned run unless it is a dry run, or it has
// conflicts and is not forced
func commitAllocation(ctx context.Context, store AllocateStore, result *AllocateResult, opts AllocateOptions, logger *zap.Logger) error {
	outcome := result.Outcome
	shouldSave := !opts.DryRun && (outcome.Success || opts.ForceCommit)

	if !shouldSave {
		if opts.DryRun {
			logger.Info("Dry run mode - allocation not saved", zap.String("run_id", result.RunID))
		} else {
			logger.Warn("Allocation has conflicts - not saving to database (use force commit to save anyway)",
				zap.String("run_id", result.RunID))
		}
		return nil
	}

	run := db.AllocationRun{
		ID:             result.RunID,
		UnitID:         result.UnitID,
		CreatedAt:      opts.now(),
		Success:        outcome.Success,
		Forced:         opts.ForceCommit && !outcome.Success,
		AvgScore:       outcome.Metrics.AvgScore,
		UnstaffedSlots: len(outcome.Unstaffed),
	}

	logger.Info("Saving allocation run",
		zap.String("run_id", run.ID),
		zap.Bool("success", run.Success),
		zap.Bool("forced", run.Forced))
	if err := store.InsertAllocationRun(ctx, run, result.Created); err != nil {
		return fmt.Errorf("failed to save allocation run: %w", err)
	}
	logger.Info("Allocation saved", zap.Int("count", len(result.Created)))

	result.Saved = true
	return nil
}
