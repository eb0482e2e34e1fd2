package commands

import (
	"fmt"
	"maps"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/facilitator-allocator/pkg/core/conflicts"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
	"github.com/jakechorley/facilitator-allocator/pkg/core/report"
	"github.com/jakechorley/facilitator-allocator/pkg/core/services"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorBold   = "\033[1m"
)

// AllocateCmd creates the allocate command
func AllocateCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Assign facilitators to the sessions of one or more units",
		Long: `Run the allocation algorithm over the selected sessions and save the result.

Each --unit is allocated as an independent run. Several units are planned in
parallel and are only saved if they do not double-book anyone between them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			units, _ := cmd.Flags().GetStringSlice("unit")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			forceCommit, _ := cmd.Flags().GetBool("force-commit")
			reportPath, _ := cmd.Flags().GetString("report")
			publish, _ := cmd.Flags().GetBool("publish")

			loc, err := app.Cfg.Location()
			if err != nil {
				return err
			}
			filter, err := rangeFromFlags(cmd, loc)
			if err != nil {
				return err
			}

			app.Logger.Debug("allocate command",
				zap.Strings("units", units),
				zap.Bool("dry_run", dryRun),
				zap.Bool("force_commit", forceCommit))

			opts := services.AllocateOptions{Filter: filter, DryRun: dryRun, ForceCommit: forceCommit}

			var results []*services.AllocateResult
			var crossConflicts []conflicts.Conflict
			if len(units) <= 1 {
				if len(units) == 1 {
					opts.Filter.UnitID = units[0]
				}
				result, err := services.Allocate(app.Ctx, app.Database, app.Cfg, app.Logger, opts)
				if err != nil {
					return fmt.Errorf("allocation failed: %w", err)
				}
				results = append(results, result)
			} else {
				combined, err := services.AllocateUnits(app.Ctx, app.Database, app.Cfg, app.Logger, units, opts)
				if err != nil {
					return fmt.Errorf("allocation failed: %w", err)
				}
				results = combined.Units
				crossConflicts = combined.CrossUnitConflicts
			}

			for _, result := range results {
				printAllocation(result, dryRun, forceCommit)
			}
			if len(crossConflicts) > 0 {
				fmt.Printf("%s❌ Units double-book facilitators (%d):%s\n", colorRed, len(crossConflicts), colorReset)
				printConflicts(crossConflicts)
			}

			if reportPath == "" && !publish {
				return nil
			}
			summary := report.BuildSummary(mergeSources(results))
			reportOpts := services.ReportOptions{Publish: publish}
			if reportPath != "" {
				file, err := os.Create(reportPath)
				if err != nil {
					return fmt.Errorf("failed to create report file: %w", err)
				}
				defer file.Close()
				reportOpts.Out = file
			}
			if err := services.EmitReport(summary, app.Publisher(), app.Cfg, app.Logger, reportOpts); err != nil {
				return err
			}
			if reportPath != "" {
				fmt.Printf("📄 Report written to %s\n\n", reportPath)
			}
			return nil
		},
	}

	cmd.Flags().StringSlice("unit", nil, "Unit to allocate (repeat for several independent runs)")
	addRangeFlags(cmd)
	cmd.Flags().Bool("dry-run", false, "Run allocation without saving to database")
	cmd.Flags().Bool("force-commit", false, "Save allocation even if it has conflicts")
	cmd.Flags().String("report", "", "Write a CSV summary of the run to this file")
	cmd.Flags().Bool("publish", false, "Publish the summary to the configured report sheet")

	return cmd
}

func printAllocation(result *services.AllocateResult, dryRun, forceCommit bool) {
	outcome := result.Outcome

	fmt.Printf("\n%s🎯 Allocation Results%s\n\n", colorBold, colorReset)
	if result.UnitID != "" {
		fmt.Printf("Unit:        %s\n", result.UnitID)
	}
	fmt.Printf("Run ID:      %s\n", result.RunID)
	switch {
	case dryRun:
		fmt.Printf("Mode:        🧪 DRY RUN (not saved)\n")
	case result.Saved && outcome.Success:
		fmt.Printf("Status:      %s✅ SUCCESS (saved to database)%s\n", colorGreen, colorReset)
	case result.Saved && forceCommit:
		fmt.Printf("Status:      %s⚠️  FORCED (saved despite conflicts)%s\n", colorYellow, colorReset)
	default:
		fmt.Printf("Status:      %s❌ NOT SAVED%s\n", colorRed, colorReset)
	}
	fmt.Printf("Sessions:    %d\n", len(result.Sessions))
	fmt.Printf("Assignments: %d new\n", len(result.Created))
	fmt.Printf("Avg score:   %.3f\n", outcome.Metrics.AvgScore)
	fmt.Println()

	names := map[string]string{}
	for _, f := range result.Facilitators {
		names[f.ID] = f.Name
	}
	sessions := map[string]model.Session{}
	for _, s := range result.Sessions {
		sessions[s.ID] = s
	}

	if len(result.Created) > 0 {
		fmt.Printf("📅 Assignments:\n\n")
		fmt.Printf("%s%-17s  %-12s  %-8s  %-24s  %s%s\n", colorBold, "Start", "Session", "Role", "Facilitator", "Score", colorReset)

		created := make([]int, len(result.Created))
		for i := range created {
			created[i] = i
		}
		sort.SliceStable(created, func(i, j int) bool {
			a, b := result.Created[created[i]], result.Created[created[j]]
			return sessions[a.SessionID].Start.Before(sessions[b.SessionID].Start)
		})
		for _, i := range created {
			record := result.Created[i]
			score := 0.0
			if record.Score != nil {
				score = *record.Score
			}
			fmt.Printf("%-17s  %-12s  %-8s  %-24s  %.3f\n",
				sessions[record.SessionID].Start.Format("Mon 02 Jan 15:04"),
				record.SessionID,
				record.Role,
				names[record.FacilitatorID],
				score)
		}
		fmt.Println()
	}

	if len(outcome.Unstaffed) > 0 {
		fmt.Printf("%s⚠️  Unstaffed Slots (%d):%s\n", colorYellow, len(outcome.Unstaffed), colorReset)
		for _, slot := range outcome.Unstaffed {
			fmt.Printf("  • %s %s: %s\n", slot.SessionID, slot.Role, slot.Reason)
		}
		fmt.Println()
	}

	if len(outcome.UnderloadedFacilitators) > 0 {
		fmt.Printf("ℹ️  Below minimum hours:\n")
		for _, f := range outcome.UnderloadedFacilitators {
			fmt.Printf("  • %s: %.1f of %d hours\n", f.Facilitator.Name, f.AssignedHours, f.Facilitator.MinHours)
		}
		fmt.Println()
	}

	if len(outcome.Conflicts) > 0 {
		fmt.Printf("%s❌ Conflicts (%d):%s\n", colorRed, len(outcome.Conflicts), colorReset)
		printConflicts(outcome.Conflicts)
	}

	if len(outcome.PreexistingConflicts) > 0 {
		fmt.Printf("%s⚠️  Conflicts already in saved assignments (%d, run 'conflicts' for details):%s\n", colorYellow, len(outcome.PreexistingConflicts), colorReset)
		printConflicts(outcome.PreexistingConflicts)
	}
}

func printConflicts(found []conflicts.Conflict) {
	for _, c := range found {
		fmt.Printf("  • [%s] %s\n", c.Kind, c.Description)
	}
	fmt.Println()
}

// mergeSources combines per-unit report inputs into one
func mergeSources(results []*services.AllocateResult) report.Source {
	var merged report.Source
	merged.Scores = map[string]float64{}
	for i, result := range results {
		source := result.ReportSource()
		if i == 0 {
			merged.Facilitators = source.Facilitators
			merged.Modules = source.Modules
		}
		merged.Sessions = append(merged.Sessions, source.Sessions...)
		merged.Assignments = append(merged.Assignments, source.Assignments...)
		merged.Unstaffed = append(merged.Unstaffed, source.Unstaffed...)
		maps.Copy(merged.Scores, source.Scores)
	}
	return merged
}
