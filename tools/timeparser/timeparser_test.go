package timeparser_test

import (
	"testing"
	"time"

	"github.com/septivank/eb-billing/tools/timeparser"
)

func TestParseReadingDate_ISO(t *testing.T) {
	result, err := timeparser.ParseReadingDate("2025-12-29")
	if err != nil {
		t.Fatalf("Failed to parse date: %v", err)
	}

	expected := time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC)
	if !result.Equal(expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}

func TestParseReadingDate_DayFirst(t *testing.T) {
	result, err := timeparser.ParseReadingDate("29/12/2025")
	if err != nil {
		t.Fatalf("Failed to parse date: %v", err)
	}

	expected := time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC)
	if !result.Equal(expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}

func TestParseReadingDate_DropsClock(t *testing.T) {
	result, err := timeparser.ParseReadingDate("29/12/2025 10:30:45")
	if err != nil {
		t.Fatalf("Failed to parse date: %v", err)
	}

	expected := time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC)
	if !result.Equal(expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}

func TestParseReadingDate_RFC3339(t *testing.T) {
	result, err := timeparser.ParseReadingDate(" 2025-12-29T10:30:45Z ")
	if err != nil {
		t.Fatalf("Failed to parse date: %v", err)
	}

	expected := time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC)
	if !result.Equal(expected) {
		t.Errorf("Expected %v, got %v", expected, result)
	}
}

func TestParseReadingDate_Invalid(t *testing.T) {
	for _, in := range []string{"invalid-date-string", "", "2025-13-01", "2025-02-30"} {
		if _, err := timeparser.ParseReadingDate(in); err == nil {
			t.Errorf("Expected error for %q", in)
		}
	}
}

func TestFormatDate(t *testing.T) {
	got := timeparser.FormatDate(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	if got != "2024-03-05" {
		t.Errorf("Expected 2024-03-05, got %s", got)
	}
}
