package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jakechorley/facilitator-allocator/pkg/core/services"
)

// ReportCmd creates the report command
func ReportCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a CSV summary of saved assignments",
		Long: `Summarise the saved assignments of the selected sessions: assignments,
unfilled slots, skill distribution, facilitator skills and workload fairness.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			publish, _ := cmd.Flags().GetBool("publish")

			loc, err := app.Cfg.Location()
			if err != nil {
				return err
			}
			filter, err := filterFromFlags(cmd, loc)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "-" {
				file, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create report file: %w", err)
				}
				defer file.Close()
				w = file
			}

			summary, err := services.WriteReport(app.Ctx, app.Database, app.Publisher(), app.Cfg, app.Logger, services.ReportOptions{
				Filter:  filter,
				Out:     w,
				Publish: publish,
			})
			if err != nil {
				return err
			}

			if out != "-" {
				fmt.Printf("\n📄 Report of %d assignments written to %s\n", len(summary.Assignments), out)
			}
			if publish {
				fmt.Printf("📤 Report published to sheet %s\n", app.Cfg.ReportSheetID)
			}
			return nil
		},
	}

	addFilterFlags(cmd)
	cmd.Flags().String("out", "-", "File to write the CSV to (- for stdout)")
	cmd.Flags().Bool("publish", false, "Publish the summary to the configured report sheet")

	return cmd
}
