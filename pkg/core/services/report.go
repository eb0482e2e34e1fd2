package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/facilitator-allocator/internal/config"
	"github.com/jakechorley/facilitator-allocator/pkg/clients/sheetsclient"
	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
	"github.com/jakechorley/facilitator-allocator/pkg/core/report"
	"github.com/jakechorley/facilitator-allocator/pkg/db"
)

// ReasonUnfilled marks committed sessions still short of their quota
const ReasonUnfilled = "unfilled"

// ReportStore defines the database operations needed to report on committed assignments
type ReportStore interface {
	GetFacilitators(ctx context.Context) ([]model.Facilitator, error)
	GetModules(ctx context.Context) ([]model.Module, error)
	GetSessions(ctx context.Context, filter db.SessionFilter) ([]model.Session, error)
	GetAssignments(ctx context.Context) ([]db.AssignmentRecord, error)
}

// ReportPublisher writes report rows to a spreadsheet tab
type ReportPublisher interface {
	PublishReport(spreadsheetID, tabTitle string, rows [][]string) error
}

// ReportOptions selects what is reported and where it goes
type ReportOptions struct {
	Filter db.SessionFilter

	// Out receives the CSV. Nil skips the CSV.
	Out io.Writer

	// Publish writes the rows to cfg.ReportSheetID
	Publish bool

	// Now names the published tab when cfg.ReportTab is empty
	Now time.Time
}

// BuildReport summarises the committed assignments of the selected sessions
func BuildReport(
	ctx context.Context,
	store ReportStore,
	cfg *config.Config,
	logger *zap.Logger,
	filter db.SessionFilter,
) (report.Summary, error) {
	logger.Debug("Starting buildReport", zap.String("unit_id", filter.UnitID))

	loc, err := cfg.Location()
	if err != nil {
		return report.Summary{}, err
	}

	facilitators, err := store.GetFacilitators(ctx)
	if err != nil {
		return report.Summary{}, fmt.Errorf("failed to fetch facilitators: %w", err)
	}

	modules, err := store.GetModules(ctx)
	if err != nil {
		return report.Summary{}, fmt.Errorf("failed to fetch modules: %w", err)
	}

	sessions, err := store.GetSessions(ctx, filter)
	if err != nil {
		return report.Summary{}, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	sessions = localizeSessions(sessions, loc)

	records, err := store.GetAssignments(ctx)
	if err != nil {
		return report.Summary{}, fmt.Errorf("failed to fetch assignments: %w", err)
	}

	selected := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		selected[s.ID] = true
	}

	var assignments []model.Assignment
	scores := map[string]float64{}
	for _, record := range records {
		if !selected[record.SessionID] {
			continue
		}
		assignments = append(assignments, record.Assignment)
		if record.Score != nil {
			scores[record.ID] = *record.Score
		}
	}
	logger.Debug("Selected assignments",
		zap.Int("sessions", len(sessions)),
		zap.Int("assignments", len(assignments)))

	unstaffed := unfilledSlots(sessions, assignments)
	if len(unstaffed) > 0 {
		logger.Warn("Sessions short of their quota", zap.Int("unstaffed_slots", len(unstaffed)))
	}

	return report.BuildSummary(report.Source{
		Facilitators: facilitators,
		Sessions:     sessions,
		Modules:      modules,
		Assignments:  assignments,
		Scores:       scores,
		Unstaffed:    unstaffed,
	}), nil
}

// WriteReport builds the summary, writes it as CSV and optionally publishes it to
// the configured spreadsheet. publisher may be nil when opts.Publish is false.
func WriteReport(
	ctx context.Context,
	store ReportStore,
	publisher ReportPublisher,
	cfg *config.Config,
	logger *zap.Logger,
	opts ReportOptions,
) (report.Summary, error) {
	summary, err := BuildReport(ctx, store, cfg, logger, opts.Filter)
	if err != nil {
		return report.Summary{}, err
	}

	if err := EmitReport(summary, publisher, cfg, logger, opts); err != nil {
		return report.Summary{}, err
	}
	return summary, nil
}

// EmitReport writes an already built summary to opts.Out and the report sheet
func EmitReport(summary report.Summary, publisher ReportPublisher, cfg *config.Config, logger *zap.Logger, opts ReportOptions) error {
	if opts.Out != nil {
		if err := report.WriteCSV(opts.Out, summary); err != nil {
			return err
		}
		logger.Debug("Report written", zap.Int("assignments", len(summary.Assignments)))
	}

	if !opts.Publish {
		return nil
	}
	if publisher == nil || cfg.ReportSheetID == "" {
		return fmt.Errorf("cannot publish report: reportSheetID is not configured")
	}

	tab := cfg.ReportTab
	if tab == "" {
		now := opts.Now
		if now.IsZero() {
			now = time.Now()
		}
		tab = sheetsclient.ReportTabTitle(now)
	}

	logger.Info("Publishing report",
		zap.String("spreadsheet_id", cfg.ReportSheetID),
		zap.String("tab", tab))
	if err := publisher.PublishReport(cfg.ReportSheetID, tab, summary.Rows()); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}
	return nil
}

// unfilledSlots returns one slot per missing head in each role, in session order
func unfilledSlots(sessions []model.Session, assignments []model.Assignment) []allocator.UnstaffedSlot {
	type key struct {
		sessionID string
		role      model.Role
	}
	filled := map[key]int{}
	for _, a := range assignments {
		filled[key{a.SessionID, a.Role}]++
	}

	ordered := make([]model.Session, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Start.Equal(ordered[j].Start) {
			return ordered[i].Start.Before(ordered[j].Start)
		}
		return ordered[i].ID < ordered[j].ID
	})

	var slots []allocator.UnstaffedSlot
	for _, s := range ordered {
		for _, role := range []model.Role{model.RoleLead, model.RoleSupport} {
			for n := filled[key{s.ID, role}]; n < s.Required(role); n++ {
				slots = append(slots, allocator.UnstaffedSlot{SessionID: s.ID, Role: role, Reason: ReasonUnfilled})
			}
		}
	}
	return slots
}
