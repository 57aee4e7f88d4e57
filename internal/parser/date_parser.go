package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	slashDateRegex = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	isoDateRegex   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	relativeRegex  = regexp.MustCompile(`^(?:\+(\d+)d|in\s+(\d+)\s+days?|(\d+)\s+days?\s+from\s+now)$`)
	monthRegex     = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)
	daysRegex      = regexp.MustCompile(`^(\d+)(?:\s*(?:d|day|days))?$`)
)

// ParseDate parses a calendar date relative to now and returns it as UTC midnight.
// Supported formats:
// - dd/mm/yyyy (e.g., "15/12/2025")
// - yyyy-mm-dd (e.g., "2025-12-15")
// - today, tomorrow
// - +Nd, "in N days", "N days from now"
func ParseDate(input string, now time.Time) (time.Time, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return time.Time{}, fmt.Errorf("date is required")
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch input {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}

	if m := slashDateRegex.FindStringSubmatch(input); m != nil {
		return buildDate(m[3], m[2], m[1])
	}
	if m := isoDateRegex.FindStringSubmatch(input); m != nil {
		return buildDate(m[1], m[2], m[3])
	}
	if m := relativeRegex.FindStringSubmatch(input); m != nil {
		n := firstNonEmpty(m[1], m[2], m[3])
		amount, err := strconv.Atoi(n)
		if err != nil || amount > 365 {
			return time.Time{}, fmt.Errorf("days must be between 0 and 365")
		}
		return today.AddDate(0, 0, amount), nil
	}

	return time.Time{}, fmt.Errorf("invalid date format. Use: dd/mm/yyyy, yyyy-mm-dd, today, tomorrow or +Nd")
}

// ParseMonth parses YYYY-MM and returns the first day of that month as UTC midnight.
// An empty input means the month containing now.
func ParseMonth(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	}
	m := monthRegex.FindStringSubmatch(input)
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid month %q. Use YYYY-MM", input)
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return time.Time{}, fmt.Errorf("year must be between 2000 and 2100")
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}

// ParseDays parses a leave length like "3", "3d" or "3 days"
func ParseDays(input string) (int, error) {
	m := daysRegex.FindStringSubmatch(strings.ToLower(strings.TrimSpace(input)))
	if m == nil {
		return 0, fmt.Errorf("invalid duration %q. Use a number of days like 3 or \"3 days\"", input)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > 366 {
		return 0, fmt.Errorf("days must be between 1 and 366")
	}
	return n, nil
}

// FormatRelativeDate renders a date with a hint of how far it is from now
func FormatRelativeDate(date, now time.Time) string {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	daysDiff := int(day.Sub(today).Hours() / 24)

	// Always show the actual date to avoid confusion
	dateStr := day.Format("02/01/2006")

	switch {
	case daysDiff < 0:
		return dateStr
	case daysDiff == 0:
		return fmt.Sprintf("today (%s)", dateStr)
	case daysDiff == 1:
		return fmt.Sprintf("tomorrow (%s)", dateStr)
	case daysDiff <= 7:
		return fmt.Sprintf("%s (in %d days)", dateStr, daysDiff)
	default:
		return dateStr
	}
}

func buildDate(y, m, d string) (time.Time, error) {
	year, err := strconv.Atoi(y)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid year")
	}
	month, err := strconv.Atoi(m)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month")
	}
	day, err := strconv.Atoi(d)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day")
	}

	// Validate date ranges
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("day must be between 1 and 31")
	}
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return time.Time{}, fmt.Errorf("year must be between 2000 and 2100")
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// Check if date is valid (handles leap years, etc.)
	if date.Day() != day || date.Month() != time.Month(month) || date.Year() != year {
		return time.Time{}, fmt.Errorf("invalid date")
	}
	return date, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
