package report

import (
	"log/slog"
	"time"

	"github.com/balkashynov/attendr/internal/attendance"
	"github.com/balkashynov/attendr/internal/models"
)

// Day is one calendar day of a month report
type Day struct {
	Date         time.Time
	ClockIn      *time.Time
	ClockOut     *time.Time
	TotalSeconds int64
	Open         bool
}

func (d Day) Present() bool {
	return d.ClockIn != nil
}

// Month is a user's attendance laid out day by day
type Month struct {
	Owner        string
	Month        time.Time
	Days         []Day
	TotalSeconds int64
	DaysPresent  int
	Location     *time.Location
}

// Build lays records out over every day of month. For the current month, days after today
// are left out.
func Build(owner string, month time.Time, records []models.ClockRecord, now time.Time, loc *time.Location, logger *slog.Logger) Month {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	if today := models.DateOf(now.In(loc)); !today.Before(start) && today.Before(end) {
		end = today.AddDate(0, 0, 1)
	}

	byDate := attendance.LatestByDate(records, logger)
	m := Month{Owner: owner, Month: start, Location: loc}
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		day := Day{Date: d}
		if rec, ok := byDate[d]; ok {
			in := rec.ClockInTime
			day.ClockIn = &in
			day.ClockOut = rec.ClockOutTime
			day.TotalSeconds = rec.TotalSeconds
			day.Open = rec.Open()
			m.TotalSeconds += rec.TotalSeconds
			m.DaysPresent++
		}
		m.Days = append(m.Days, day)
	}
	return m
}

func clockString(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format("15:04")
}
