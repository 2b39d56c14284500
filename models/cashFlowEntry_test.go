package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRecomputeRunningTotals(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2025, 4, d, 0, 0, 0, 0, time.UTC)
	}
	entries := []*CashFlowEntry{
		{EntryDate: day(1), Amount: decimal.RequireFromString("500.00")},
		{EntryDate: day(2), Amount: decimal.RequireFromString("-120.00")},
		{EntryDate: day(2), Amount: decimal.RequireFromString("80.00")},
		{EntryDate: day(5), Amount: decimal.RequireFromString("-460.00")},
	}

	RecomputeRunningTotals(entries, decimal.RequireFromString("1000.00"))

	want := []string{"1500.00", "1380.00", "1460.00", "1000.00"}
	for i, entry := range entries {
		if !entry.RunningTotal.Equal(decimal.RequireFromString(want[i])) {
			t.Errorf("entry %d running total = %s, want %s", i, entry.RunningTotal, want[i])
		}
	}
}

func TestRecomputeRunningTotals_Empty(t *testing.T) {
	// Must not panic on an account with no entries.
	RecomputeRunningTotals(nil, decimal.Zero)
}
