package sheetsclient

import (
	"fmt"
	"time"

	"google.golang.org/api/sheets/v4"
)

// ReportTabTitle returns the default tab name for a report generated at t,
// e.g. "Allocation 2025-03-03 14:05"
func ReportTabTitle(t time.Time) string {
	return "Allocation " + t.Format("2006-01-02 15:04")
}

// PublishReport writes rows to a tab, replacing its previous contents.
// The tab is created if it does not exist.
func (c *Client) PublishReport(spreadsheetID, tabTitle string, rows [][]string) error {
	spreadsheet, err := c.service.Spreadsheets.Get(spreadsheetID).Do()
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet metadata: %w", err)
	}

	exists := false
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties.Title == tabTitle {
			exists = true
			break
		}
	}

	if exists {
		_, err := c.service.Spreadsheets.Values.Clear(spreadsheetID, tabTitle, &sheets.ClearValuesRequest{}).Do()
		if err != nil {
			return fmt.Errorf("failed to clear tab %s: %w", tabTitle, err)
		}
	} else if _, err := c.CreateSheet(spreadsheetID, tabTitle); err != nil {
		return err
	}

	valueRange := &sheets.ValueRange{Values: toValues(rows)}
	_, err = c.service.Spreadsheets.Values.Update(spreadsheetID, tabTitle+"!A1", valueRange).
		ValueInputOption("RAW").
		Do()
	if err != nil {
		return fmt.Errorf("failed to write report to tab %s: %w", tabTitle, err)
	}

	return nil
}

// toValues converts string rows to the API's cell representation. Empty rows are
// kept as a single blank cell so section spacing survives.
func toValues(rows [][]string) [][]interface{} {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		if len(row) == 0 {
			values[i] = []interface{}{""}
			continue
		}
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}
	return values
}
