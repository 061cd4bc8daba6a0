// Package report writes batch resolution results to CSV and XLSX files for
// payroll review.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/fairwork-tools/holidaycheck/internal/resolve"
)

// columns of the findings output, one row per batch input row.
var columns = []string{
	"employee_id",
	"address",
	"work_mode",
	"status",
	"confidence",
	"manual_review",
	"audit_code",
	"audit_message",
	"state",
	"locality",
	"postcode",
	"lga",
	"holiday_count",
	"holidays_in_period",
	"rules_applied",
	"notes",
}

// rowValues flattens one result into output column order.
func rowValues(rr resolve.RowResult) []string {
	res := rr.Result

	var state, locality, postcode string
	if res.Location != nil {
		state = string(res.Location.State)
		locality = res.Location.Locality
		postcode = res.Location.Postcode
	}

	inPeriod := make([]string, 0, len(res.HolidaysInPeriod))
	for _, h := range res.HolidaysInPeriod {
		inPeriod = append(inPeriod, fmt.Sprintf("%s %s", h.Date.Format("2006-01-02"), h.Name))
	}

	return []string{
		rr.Row.EmployeeID,
		rr.Row.Address(),
		string(rr.Row.WorkMode),
		string(res.Status),
		fmt.Sprintf("%.2f", res.ConfidenceScore),
		fmt.Sprintf("%t", res.ManualReviewRequired),
		res.AuditCode,
		res.AuditMessage,
		state,
		locality,
		postcode,
		res.LGA,
		fmt.Sprintf("%d", len(res.Holidays)),
		strings.Join(inPeriod, "; "),
		strings.Join(res.RulesApplied, "; "),
		strings.Join(res.AuditNotes, "; "),
	}
}

// WriteCSV writes the batch findings as CSV.
func WriteCSV(path string, batch *resolve.BatchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return eris.Wrap(err, "report: write header")
	}
	for _, rr := range batch.Rows {
		if err := w.Write(rowValues(rr)); err != nil {
			return eris.Wrap(err, "report: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "report: flush")
	}

	zap.L().Info("findings written",
		zap.String("path", path),
		zap.String("run_id", batch.RunID),
		zap.Int("rows", len(batch.Rows)),
	)
	return nil
}

// WriteXLSX writes the batch findings as a single-sheet workbook.
func WriteXLSX(path string, batch *resolve.BatchResult) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Findings")
	if err != nil {
		return eris.Wrap(err, "report: add sheet")
	}

	header := sheet.AddRow()
	for _, c := range columns {
		header.AddCell().SetString(c)
	}
	for _, rr := range batch.Rows {
		row := sheet.AddRow()
		for _, v := range rowValues(rr) {
			row.AddCell().SetString(v)
		}
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}

	zap.L().Info("findings written",
		zap.String("path", path),
		zap.String("run_id", batch.RunID),
		zap.Int("rows", len(batch.Rows)),
	)
	return nil
}

// Write picks the output format from the file extension: .xlsx gets a
// workbook, anything else gets CSV.
func Write(path string, batch *resolve.BatchResult) error {
	if strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		return WriteXLSX(path, batch)
	}
	return WriteCSV(path, batch)
}
