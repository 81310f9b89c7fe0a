package pipeline

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"focorders/internal/util"
)

var outcomeHeaders = []string{
	"SoldToParty", "PO_Number", "items", "status", "http_status",
	"SalesOrderWithoutCharge", "message", "error", "persist_error",
}

// ExportOutcomesToXLSX writes the run summary, one row per group in submission order.
func ExportOutcomesToXLSX(result *RunResult, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, h := range outcomeHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, o := range result.Outcomes {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, o.SoldToParty)
		set(2, o.PONumber)
		set(3, o.ItemCount)
		set(4, string(o.Status))
		if o.HTTPStatus != 0 {
			set(5, o.HTTPStatus)
		}
		set(6, util.Deref(o.OrderNumber))
		set(7, o.Message)
		set(8, util.Truncate(util.Deref(o.Error), 32000))
		set(9, util.Deref(o.PersistError))
	}

	props := [][2]string{
		{"run_id", result.RunID},
		{"source", result.Source},
		{"effective_date", result.EffectiveDate},
	}
	const runSheet = "run"
	if _, err := f.NewSheet(runSheet); err != nil {
		return err
	}
	for i, p := range props {
		key, _ := excelize.CoordinatesToCellName(1, i+1)
		value, _ := excelize.CoordinatesToCellName(2, i+1)
		_ = f.SetCellValue(runSheet, key, p[0])
		_ = f.SetCellValue(runSheet, value, p[1])
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
