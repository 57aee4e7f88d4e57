package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/balkashynov/attendr/internal/attendance"
	"github.com/balkashynov/attendr/internal/models"
	"github.com/balkashynov/attendr/internal/parser"
)

// WriteTable renders the month as a terminal table
func WriteTable(w io.Writer, m Month) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(fmt.Sprintf("Attendance %s %s", m.Month.Format("January 2006"), m.Owner))
	t.AppendHeader(table.Row{"Date", "Day", "Clock in", "Clock out", "Worked"})

	for _, d := range m.Days {
		worked := ""
		if d.Present() {
			worked = attendance.FormatHoursMinutes(d.TotalSeconds)
		}
		out := clockString(d.ClockOut, m.Location)
		if d.Open {
			out = "working"
		}
		t.AppendRow(table.Row{
			d.Date.Format("2006-01-02"),
			d.Date.Format("Mon"),
			clockString(d.ClockIn, m.Location),
			out,
			worked,
		})
	}

	t.AppendFooter(table.Row{"", "", "Days present", m.DaysPresent, attendance.FormatHoursMinutes(m.TotalSeconds)})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.Render()
}

// WriteLeaves renders leave requests. The requester column is shown when showOwner is set.
func WriteLeaves(w io.Writer, reqs []models.LeaveRequest, showOwner bool, now time.Time) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := table.Row{"ID", "Type", "Team", "From", "To", "Days", "Status", "Reason"}
	if showOwner {
		header = append(table.Row{"ID", "Employee"}, header[1:]...)
	}
	t.AppendHeader(header)

	for _, r := range reqs {
		row := table.Row{
			r.ID,
			r.LeaveType,
			r.TeamName,
			parser.FormatRelativeDate(time.Time(r.StartDate), now),
			time.Time(r.EndDate).Format("02/01/2006"),
			r.Days(),
			string(r.Status),
			truncate(r.Reason, 40),
		}
		if showOwner {
			owner := r.UserID
			if r.User != nil {
				owner = r.User.FullName
				if owner == "" {
					owner = r.User.Email
				}
			}
			row = append(table.Row{r.ID, owner}, row[1:]...)
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d requests", len(reqs))})
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
