package calendar

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestExpandDays_MultiDayRange(t *testing.T) {
	days := ExpandDays(date(2025, time.June, 1, 14), date(2025, time.June, 3, 10))

	expected := []string{"2025-06-01", "2025-06-02", "2025-06-03"}
	if len(days) != len(expected) {
		t.Fatalf("expected %d days, got %d: %v", len(expected), len(days), days)
	}
	for i, want := range expected {
		if days[i] != want {
			t.Errorf("day %d: expected %s, got %s", i, want, days[i])
		}
	}
}

func TestExpandDays_SameDay(t *testing.T) {
	days := ExpandDays(date(2025, time.June, 1, 9), date(2025, time.June, 1, 17))

	if len(days) != 1 {
		t.Fatalf("expected 1 day, got %d: %v", len(days), days)
	}
	if days[0] != "2025-06-01" {
		t.Errorf("expected 2025-06-01, got %s", days[0])
	}
}

func TestExpandDays_IncludesBothEndpoints(t *testing.T) {
	days := ExpandDays(date(2025, time.December, 30, 0), date(2026, time.January, 2, 0))

	expected := []string{"2025-12-30", "2025-12-31", "2026-01-01", "2026-01-02"}
	if len(days) != len(expected) {
		t.Fatalf("expected %d days, got %d: %v", len(expected), len(days), days)
	}
	for i, want := range expected {
		if days[i] != want {
			t.Errorf("day %d: expected %s, got %s", i, want, days[i])
		}
	}
}

func TestExpandDays_InvertedRange(t *testing.T) {
	days := ExpandDays(date(2025, time.June, 3, 0), date(2025, time.June, 1, 0))

	if len(days) != 1 {
		t.Fatalf("expected 1 day for inverted range, got %d: %v", len(days), days)
	}
	if days[0] != "2025-06-03" {
		t.Errorf("expected start day 2025-06-03, got %s", days[0])
	}
}

func TestDayKey_TruncatesToUTCDay(t *testing.T) {
	loc := time.FixedZone("UTC+4", 4*60*60)
	key := DayKey(time.Date(2025, time.June, 2, 1, 30, 0, 0, loc))

	// 01:30 UTC+4 is still June 1st in UTC.
	if key != "2025-06-01" {
		t.Errorf("expected 2025-06-01, got %s", key)
	}
}
