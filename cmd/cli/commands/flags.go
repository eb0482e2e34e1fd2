package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakechorley/facilitator-allocator/pkg/db"
)

const dateLayout = "2006-01-02"

// addFilterFlags registers the session selection flags shared by several commands
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("unit", "", "Only include sessions of this unit")
	addRangeFlags(cmd)
}

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "Only include sessions ending on or after this date (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "Only include sessions starting on or before this date (YYYY-MM-DD)")
}

// filterFromFlags reads the flags registered by addFilterFlags
func filterFromFlags(cmd *cobra.Command, loc *time.Location) (db.SessionFilter, error) {
	filter, err := rangeFromFlags(cmd, loc)
	if err != nil {
		return db.SessionFilter{}, err
	}
	filter.UnitID, _ = cmd.Flags().GetString("unit")
	return filter, nil
}

// rangeFromFlags reads --from and --to. Dates are calendar days in loc and --to
// covers the whole of its day.
func rangeFromFlags(cmd *cobra.Command, loc *time.Location) (db.SessionFilter, error) {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")

	var filter db.SessionFilter
	var err error
	if filter.From, err = parseDate(from, loc); err != nil {
		return db.SessionFilter{}, fmt.Errorf("invalid --from: %w", err)
	}
	if filter.To, err = parseDate(to, loc); err != nil {
		return db.SessionFilter{}, fmt.Errorf("invalid --to: %w", err)
	}
	if !filter.To.IsZero() {
		filter.To = filter.To.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return db.SessionFilter{}, fmt.Errorf("--to is before --from")
	}
	return filter, nil
}

func parseDate(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(dateLayout, value, loc)
}
