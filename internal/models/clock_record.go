package models

import (
	"time"

	"gorm.io/datatypes"
)

// ClockRecord is one user's attendance for one calendar date.
// At most one row exists per (user_id, date).
type ClockRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID       string         `gorm:"not null;uniqueIndex:idx_clock_user_date" json:"user_id"`
	Date         datatypes.Date `gorm:"not null;uniqueIndex:idx_clock_user_date" json:"date"`
	ClockInTime  time.Time      `gorm:"not null" json:"clock_in"`
	ClockOutTime *time.Time     `json:"clock_out"`
	TotalSeconds int64          `gorm:"not null;default:0" json:"total_seconds"`
}

func (ClockRecord) TableName() string {
	return "clock_records"
}

// Open reports whether a session is currently running on this record.
func (r *ClockRecord) Open() bool {
	return r.ClockOutTime == nil
}

// Day returns the record's calendar date as a UTC midnight time.
func (r *ClockRecord) Day() time.Time {
	return DateOf(time.Time(r.Date))
}

// DateOf truncates t to its calendar date (in t's own location) and returns it as UTC midnight,
// the form every date column is stored in.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
