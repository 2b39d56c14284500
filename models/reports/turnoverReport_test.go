package reports

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestClassifyABC(t *testing.T) {
	// Items arrive sorted by revenue descending, as the report query returns them.
	items := []*ABCItem{
		{ItemId: 1, Revenue: decimal.RequireFromString("5000.00")},
		{ItemId: 2, Revenue: decimal.RequireFromString("2500.00")},
		{ItemId: 3, Revenue: decimal.RequireFromString("1500.00")},
		{ItemId: 4, Revenue: decimal.RequireFromString("600.00")},
		{ItemId: 5, Revenue: decimal.RequireFromString("400.00")},
	}
	ClassifyABC(items)

	want := []ABCClass{ABCClassA, ABCClassA, ABCClassB, ABCClassC, ABCClassC}
	for i, item := range items {
		if item.Class != want[i] {
			t.Errorf("item %d class = %s, want %s", item.ItemId, item.Class, want[i])
		}
	}
}

func TestClassifyABC_NoRevenue(t *testing.T) {
	items := []*ABCItem{
		{ItemId: 1, Revenue: decimal.Zero},
		{ItemId: 2, Revenue: decimal.Zero},
	}
	ClassifyABC(items)
	for _, item := range items {
		if item.Class != ABCClassC {
			t.Errorf("item %d class = %s, want C when nothing sold", item.ItemId, item.Class)
		}
	}
}
