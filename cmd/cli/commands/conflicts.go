package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/facilitator-allocator/pkg/core/services"
)

// ConflictsCmd creates the conflicts command
func ConflictsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conflicts",
		Short: "Check saved assignments for double-bookings and unavailability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := app.Cfg.Location()
			if err != nil {
				return err
			}
			filter, err := filterFromFlags(cmd, loc)
			if err != nil {
				return err
			}

			result, err := services.DetectConflicts(app.Ctx, app.Database, app.Cfg, app.Logger, filter)
			if err != nil {
				return err
			}

			fmt.Printf("\nChecked %d assignments\n\n", result.Checked)
			if len(result.Conflicts) == 0 {
				fmt.Printf("%s✅ No conflicts%s\n\n", colorGreen, colorReset)
				return nil
			}

			fmt.Printf("%s❌ Conflicts (%d):%s\n", colorRed, len(result.Conflicts), colorReset)
			printConflicts(result.Conflicts)
			return fmt.Errorf("found %d conflicts", len(result.Conflicts))
		},
	}

	addFilterFlags(cmd)
	return cmd
}
