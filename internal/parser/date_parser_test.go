package parser

import (
	"strings"
	"testing"
	"time"
)

var now = time.Date(2025, 2, 27, 18, 30, 0, 0, time.UTC)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"15/03/2025", d(2025, 3, 15)},
		{"1/3/2025", d(2025, 3, 1)},
		{"2025-03-15", d(2025, 3, 15)},
		{"29/02/2024", d(2024, 2, 29)},
		{"today", d(2025, 2, 27)},
		{" Tomorrow ", d(2025, 2, 28)},
		{"+3d", d(2025, 3, 2)},
		{"in 1 day", d(2025, 2, 28)},
		{"10 days from now", d(2025, 3, 9)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in, now)
			if err != nil {
				t.Fatalf("ParseDate(%q) failed: %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("ParseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDateErrors(t *testing.T) {
	for _, in := range []string{"", "29/02/2025", "31/04/2025", "13/13/2025", "2025-1", "yesterday", "+400d", "15-03-2025"} {
		if _, err := ParseDate(in, now); err == nil {
			t.Errorf("ParseDate(%q) should fail", in)
		}
	}
}

func TestParseMonth(t *testing.T) {
	got, err := ParseMonth("2024-02", now)
	if err != nil || !got.Equal(d(2024, 2, 1)) {
		t.Fatalf("ParseMonth(2024-02) = %v, %v", got, err)
	}
	got, err = ParseMonth("", now)
	if err != nil || !got.Equal(d(2025, 2, 1)) {
		t.Fatalf("ParseMonth(\"\") = %v, %v", got, err)
	}
	for _, in := range []string{"2024-13", "24-02", "feb", "1999-01"} {
		if _, err := ParseMonth(in, now); err == nil {
			t.Errorf("ParseMonth(%q) should fail", in)
		}
	}
}

func TestParseDays(t *testing.T) {
	for in, want := range map[string]int{"3": 3, "3d": 3, "1 day": 1, " 10 DAYS ": 10} {
		got, err := ParseDays(in)
		if err != nil || got != want {
			t.Errorf("ParseDays(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	for _, in := range []string{"0", "-1", "three", "400"} {
		if _, err := ParseDays(in); err == nil {
			t.Errorf("ParseDays(%q) should fail", in)
		}
	}
}

func TestFormatRelativeDate(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{d(2025, 2, 26), "26/02/2025"},
		{d(2025, 2, 27), "today"},
		{d(2025, 2, 28), "tomorrow"},
		{d(2025, 3, 3), "in 4 days"},
		{d(2025, 4, 1), "01/04/2025"},
	}
	for _, tt := range tests {
		if got := FormatRelativeDate(tt.date, now); !strings.Contains(got, tt.want) {
			t.Errorf("FormatRelativeDate(%v) = %q, want it to contain %q", tt.date, got, tt.want)
		}
	}
}
