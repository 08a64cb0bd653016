package timeparser

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical calendar-date layout used for storage and display
const DateLayout = "2006-01-02"

// ParseReadingDate attempts to parse a calendar date with multiple formats.
// The time of day is discarded and the result is midnight UTC.
func ParseReadingDate(dateStr string) (time.Time, error) {
	formats := []string{
		DateLayout,            // YYYY-MM-DD
		"02/01/2006",          // DD/MM/YYYY
		"02/01/2006 15:04:05", // DD/MM/YYYY HH:mm:ss
		time.RFC3339,          // Standard RFC3339
	}

	dateStr = strings.TrimSpace(dateStr)

	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, dateStr)
		if err == nil {
			return TruncateToDate(t), nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("failed to parse date '%s': %w", dateStr, lastErr)
}

// TruncateToDate drops the clock part of t, keeping its calendar date in UTC
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders t in DateLayout
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
