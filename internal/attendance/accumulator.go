package attendance

import (
	"fmt"
	"math"
	"time"
)

// ElapsedSeconds returns the whole seconds between start and end.
// Sub-second remainders are dropped.
func ElapsedSeconds(start, end time.Time) (int64, error) {
	if end.Before(start) {
		return 0, ErrInvalidInterval
	}
	return int64(end.Sub(start) / time.Second), nil
}

// Accumulate adds a session's seconds to a day's running total.
func Accumulate(previousTotal, sessionSeconds int64) (int64, error) {
	if previousTotal < 0 || sessionSeconds < 0 {
		return 0, ErrInvalidDuration
	}
	if previousTotal > math.MaxInt64-sessionSeconds {
		return 0, ErrInvalidDuration
	}
	return previousTotal + sessionSeconds, nil
}

// LiveElapsed is the running length of an open session at now.
func LiveElapsed(clockIn, now time.Time) (int64, error) {
	return ElapsedSeconds(clockIn, now)
}

// FormatHoursMinutes renders seconds as "{h}h {m}m", truncating leftover seconds.
func FormatHoursMinutes(totalSeconds int64) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", h, m)
}

// FormatClock renders seconds as HH:MM:SS for the live display.
func FormatClock(totalSeconds int64) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", totalSeconds/3600, (totalSeconds%3600)/60, totalSeconds%60)
}
