package utils

import (
	"time"
)

// StartOfDay truncates to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last representable second of the day in UTC.
func EndOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}

// YearMonth formats the month-rollup key, e.g. "2025-02".
func YearMonth(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// AddFrequency advances a due date by one scheduling period.
// Monthly schedules use calendar months so the 1st stays the 1st.
func AddFrequency(t time.Time, frequency string) time.Time {
	switch frequency {
	case "weekly":
		return t.AddDate(0, 0, 7)
	case "bi-weekly":
		return t.AddDate(0, 0, 14)
	case "monthly":
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}
