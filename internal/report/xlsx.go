package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Attendance"

// WriteXLSX exports the month as a spreadsheet, one row per day with hours as a number
func WriteXLSX(w io.Writer, m Month) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	headers := []interface{}{"Date", "Day", "Clock in", "Clock out", "Worked (h)", "Worked (s)"}
	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "F1", bold); err != nil {
		return err
	}

	row := 2
	for _, d := range m.Days {
		out := clockString(d.ClockOut, m.Location)
		if d.Open {
			out = "working"
		}
		values := []interface{}{
			d.Date.Format("2006-01-02"),
			d.Date.Format("Mon"),
			clockString(d.ClockIn, m.Location),
			out,
			hours(d.TotalSeconds),
			d.TotalSeconds,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return err
		}
		row++
	}

	totals := []interface{}{"Total", fmt.Sprintf("%d days present", m.DaysPresent), "", "", hours(m.TotalSeconds), m.TotalSeconds}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, cell, &totals); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "A", "F", 14); err != nil {
		return err
	}

	return f.Write(w)
}

func hours(seconds int64) float64 {
	return float64(seconds*100/3600) / 100
}
