package report

import (
	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"
)

const summarySheet = "Summary"

// WriteWorkbook exports the summary to an xlsx file: a Summary sheet with the totals
// and one sheet per category holding its distribution.
func WriteWorkbook(path string, s Summary) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return eris.Wrap(err, "report: rename default sheet")
	}
	totals := [][]any{
		{"Metric", "Value"},
		{"Total features", s.Total},
		{"Matched features", s.Matched},
		{"Community SIP districts", s.Community},
	}
	if err := writeRows(f, summarySheet, totals); err != nil {
		return err
	}

	for _, d := range s.Distributions {
		name := d.Category.Field
		if _, err := f.NewSheet(name); err != nil {
			return eris.Wrapf(err, "report: create sheet %s", name)
		}
		rows := [][]any{{"Value", "Count", "Percent"}}
		for _, c := range d.Counts {
			rows = append(rows, []any{c.Value, c.Count, c.Percent})
		}
		if err := writeRows(f, name, rows); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return eris.Wrapf(err, "report: save %s", path)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return eris.Wrap(err, "report: cell name")
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return eris.Wrapf(err, "report: write %s row %d", sheet, i+1)
		}
	}
	return nil
}
