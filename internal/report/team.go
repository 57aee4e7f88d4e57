package report

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/balkashynov/attendr/internal/attendance"
	"github.com/balkashynov/attendr/internal/models"
)

// TeamRow is one employee's totals for a month
type TeamRow struct {
	Name         string
	Email        string
	DaysPresent  int
	TotalSeconds int64
	Working      bool
}

// BuildTeam totals records per user. Every user gets a row, absent or not.
func BuildTeam(users []models.User, records []models.ClockRecord, logger *slog.Logger) []TeamRow {
	byUser := make(map[string][]models.ClockRecord)
	for _, rec := range records {
		byUser[rec.UserID] = append(byUser[rec.UserID], rec)
	}

	rows := make([]TeamRow, 0, len(users))
	for _, u := range users {
		row := TeamRow{Name: u.FullName, Email: u.Email}
		for _, rec := range attendance.LatestByDate(byUser[u.ID], logger) {
			row.DaysPresent++
			row.TotalSeconds += rec.TotalSeconds
			if rec.Open() {
				row.Working = true
			}
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].TotalSeconds > rows[j].TotalSeconds })
	return rows
}

// WriteTeam renders the per-employee totals for month
func WriteTeam(w io.Writer, month time.Time, rows []TeamRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("Team attendance %s", month.Format("January 2006")))
	t.AppendHeader(table.Row{"Employee", "Email", "Days", "Worked", ""})

	var total int64
	for _, r := range rows {
		status := ""
		if r.Working {
			status = "working"
		}
		t.AppendRow(table.Row{r.Name, r.Email, r.DaysPresent, attendance.FormatHoursMinutes(r.TotalSeconds), status})
		total += r.TotalSeconds
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d employees", len(rows)), "", "", attendance.FormatHoursMinutes(total), ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.Render()
}
