package attendance

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/balkashynov/attendr/internal/auth"
	"github.com/balkashynov/attendr/internal/models"
)

// MonthStats summarises a user's attendance for the current month
type MonthStats struct {
	MonthlyAttendanceCount int     `json:"monthly_attendance_count"`
	ElapsedCalendarDays    int     `json:"elapsed_calendar_days"`
	AttendancePercentage   int     `json:"attendance_percentage"`
	TodaySeconds           int64   `json:"today_seconds"`
	TodayHours             float64 `json:"today_hours"`
}

// DailyTotal is the worked time on one date
type DailyTotal struct {
	Date         time.Time `json:"date"`
	TotalSeconds int64     `json:"total_seconds"`
	Open         bool      `json:"open"`
}

// MonthRange returns the first and last calendar dates (UTC midnights) of now's month in loc.
func MonthRange(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end
}

// ElapsedCalendarDays counts the days since the start of now's month, the current
// partial day included.
func ElapsedCalendarDays(now time.Time, loc *time.Location) int {
	local := now.In(loc)
	startOfMonth := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	if !local.After(startOfMonth) {
		return 0
	}
	// counted in calendar days, a DST day is still one day
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if local.Equal(midnight) {
		return local.Day() - 1
	}
	return local.Day()
}

// Aggregate computes MonthStats from the month's records.
func Aggregate(records []models.ClockRecord, now time.Time, loc *time.Location, logger *slog.Logger) MonthStats {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}

	byDate := LatestByDate(records, logger)
	today := models.DateOf(now.In(loc))

	stats := MonthStats{
		MonthlyAttendanceCount: len(byDate),
		ElapsedCalendarDays:    ElapsedCalendarDays(now, loc),
	}
	if stats.ElapsedCalendarDays > 0 {
		pct := math.Round(float64(stats.MonthlyAttendanceCount) / float64(stats.ElapsedCalendarDays) * 100)
		stats.AttendancePercentage = int(math.Max(0, math.Min(100, pct)))
	}
	if rec, ok := byDate[today]; ok {
		stats.TodaySeconds = rec.TotalSeconds
		stats.TodayHours = math.Round(float64(rec.TotalSeconds)/3600*10) / 10
	}
	return stats
}

// DailyTotals returns one entry per recorded date, oldest first.
func DailyTotals(records []models.ClockRecord, logger *slog.Logger) []DailyTotal {
	if logger == nil {
		logger = slog.Default()
	}
	byDate := LatestByDate(records, logger)
	out := make([]DailyTotal, 0, len(byDate))
	for date, rec := range byDate {
		out = append(out, DailyTotal{Date: date, TotalSeconds: rec.TotalSeconds, Open: rec.Open()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// LatestByDate keeps the most recently updated record per date.
func LatestByDate(records []models.ClockRecord, logger *slog.Logger) map[time.Time]models.ClockRecord {
	if logger == nil {
		logger = slog.Default()
	}
	byDate := make(map[time.Time]models.ClockRecord, len(records))
	for _, rec := range records {
		date := rec.Day()
		existing, ok := byDate[date]
		if !ok {
			byDate[date] = rec
			continue
		}
		kept := pickNewer(existing, rec)
		logger.Warn("duplicate clock records for date",
			"user_id", rec.UserID,
			"date", date.Format(time.DateOnly),
			"kept_id", kept.ID)
		byDate[date] = kept
	}
	return byDate
}

func pickNewer(a, b models.ClockRecord) models.ClockRecord {
	if b.UpdatedAt.After(a.UpdatedAt) {
		return b
	}
	return a
}

// Dashboard loads month statistics for the signed-in user
type Dashboard struct {
	store  Store
	loc    *time.Location
	logger *slog.Logger
}

func NewDashboard(store Store, loc *time.Location, logger *slog.Logger) *Dashboard {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{store: store, loc: loc, logger: logger}
}

// Refresh recomputes the stats. When the read fails, prev is returned unchanged together
// with the error so callers can keep showing the last known figures.
func (d *Dashboard) Refresh(ctx context.Context, sess auth.Session, now time.Time, prev MonthStats) (MonthStats, error) {
	if !sess.Authenticated() {
		return prev, ErrAuthRequired
	}
	records, err := d.MonthRecords(ctx, sess, now)
	if err != nil {
		d.logger.Warn("dashboard refresh failed, keeping previous stats", "user_id", sess.UserID, "err", err)
		return prev, err
	}
	return Aggregate(records, now, d.loc, d.logger), nil
}

// MonthRecords fetches the records of now's month up to and including today.
func (d *Dashboard) MonthRecords(ctx context.Context, sess auth.Session, now time.Time) ([]models.ClockRecord, error) {
	if !sess.Authenticated() {
		return nil, ErrAuthRequired
	}
	start, _ := MonthRange(now, d.loc)
	today := models.DateOf(now.In(d.loc))
	return d.Records(ctx, sess, start, today)
}

// Records fetches the records between two dates, both inclusive.
func (d *Dashboard) Records(ctx context.Context, sess auth.Session, start, end time.Time) ([]models.ClockRecord, error) {
	if !sess.Authenticated() {
		return nil, ErrAuthRequired
	}
	records, err := d.store.QueryClockRecordsInRange(ctx, sess.UserID, start, end)
	if err != nil {
		return nil, readFailed(err)
	}
	return records, nil
}
