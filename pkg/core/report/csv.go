package report

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes the summary to w
func WriteCSV(w io.Writer, summary Summary) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(summary.Rows()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
