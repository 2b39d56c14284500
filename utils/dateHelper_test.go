package utils

import (
	"testing"
	"time"
)

func TestAddFrequency(t *testing.T) {
	base := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	if got := AddFrequency(base, "weekly"); !got.Equal(base.AddDate(0, 0, 7)) {
		t.Errorf("weekly: got %s", got)
	}
	if got := AddFrequency(base, "bi-weekly"); !got.Equal(base.AddDate(0, 0, 14)) {
		t.Errorf("bi-weekly: got %s", got)
	}
	// Jan 31 + 1 calendar month normalizes to Mar 3 in a non-leap year.
	if got := AddFrequency(base, "monthly"); !got.Equal(time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("monthly: got %s", got)
	}
	// Unknown frequency falls back to monthly.
	if got := AddFrequency(base, "fortnightly"); !got.Equal(AddFrequency(base, "monthly")) {
		t.Errorf("fallback: got %s", got)
	}
}

func TestYearMonth(t *testing.T) {
	if got := YearMonth(time.Date(2025, 2, 14, 23, 30, 0, 0, time.UTC)); got != "2025-02" {
		t.Errorf("YearMonth = %q, want 2025-02", got)
	}
}

func TestStartEndOfDay(t *testing.T) {
	in := time.Date(2025, 6, 15, 14, 22, 9, 0, time.UTC)
	if got := StartOfDay(in); got.Hour() != 0 || got.Day() != 15 {
		t.Errorf("StartOfDay = %s", got)
	}
	if got := EndOfDay(in); got.Hour() != 23 || got.Minute() != 59 || got.Second() != 59 {
		t.Errorf("EndOfDay = %s", got)
	}
}
