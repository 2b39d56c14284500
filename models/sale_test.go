package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeSaleTotals(t *testing.T) {
	lines := []decimal.Decimal{
		decimal.RequireFromString("1500.00"),
		decimal.RequireFromString("2500.00"),
	}
	totals, err := ComputeSaleTotals(lines, decimal.RequireFromString("400.00"), decimal.RequireFromString("0.05"), "half-up")
	if err != nil {
		t.Fatal(err)
	}
	if !totals.Subtotal.Equal(decimal.RequireFromString("4000.00")) {
		t.Errorf("subtotal = %s, want 4000.00", totals.Subtotal)
	}
	// Tax applies to the discounted amount: (4000-400)*0.05 = 180.
	if !totals.Tax.Equal(decimal.RequireFromString("180.00")) {
		t.Errorf("tax = %s, want 180.00", totals.Tax)
	}
	if !totals.Total.Equal(decimal.RequireFromString("3780.00")) {
		t.Errorf("total = %s, want 3780.00", totals.Total)
	}
}

func TestComputeSaleTotals_RoundsPerLine(t *testing.T) {
	lines := []decimal.Decimal{
		decimal.RequireFromString("10.005"),
		decimal.RequireFromString("10.005"),
	}
	totals, err := ComputeSaleTotals(lines, decimal.Zero, decimal.Zero, "half-up")
	if err != nil {
		t.Fatal(err)
	}
	// Each line rounds before summing: 10.01 + 10.01, not round(20.01).
	if !totals.Subtotal.Equal(decimal.RequireFromString("20.02")) {
		t.Errorf("subtotal = %s, want 20.02", totals.Subtotal)
	}
}

func TestComputeSaleTotals_Rejections(t *testing.T) {
	lines := []decimal.Decimal{decimal.RequireFromString("100.00")}

	if _, err := ComputeSaleTotals(lines, decimal.RequireFromString("-1"), decimal.Zero, ""); err == nil {
		t.Error("negative discount should be rejected")
	}
	if _, err := ComputeSaleTotals(lines, decimal.RequireFromString("150.00"), decimal.Zero, ""); err == nil {
		t.Error("discount above subtotal should be rejected")
	}
	if _, err := ComputeSaleTotals(lines, decimal.Zero, decimal.RequireFromString("-0.05"), ""); err == nil {
		t.Error("negative tax rate should be rejected")
	}
}
