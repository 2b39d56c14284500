package utils

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSplitEvenly_LastPartAbsorbsRemainder(t *testing.T) {
	total := decimal.RequireFromString("100.00")
	parts := SplitEvenly(total, 3)
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(parts))
	}
	if !parts[0].Equal(decimal.RequireFromString("33.33")) {
		t.Errorf("part 0 = %s, want 33.33", parts[0])
	}
	if !parts[1].Equal(decimal.RequireFromString("33.33")) {
		t.Errorf("part 1 = %s, want 33.33", parts[1])
	}
	if !parts[2].Equal(decimal.RequireFromString("33.34")) {
		t.Errorf("part 2 = %s, want 33.34", parts[2])
	}

	sum := decimal.Zero
	for _, p := range parts {
		sum = sum.Add(p)
	}
	if !sum.Equal(total) {
		t.Errorf("parts sum to %s, want %s", sum, total)
	}
}

func TestSplitEvenly_ExactDivision(t *testing.T) {
	parts := SplitEvenly(decimal.RequireFromString("90.00"), 3)
	for i, p := range parts {
		if !p.Equal(decimal.RequireFromString("30")) {
			t.Errorf("part %d = %s, want 30", i, p)
		}
	}
}

func TestSplitEvenly_ZeroCount(t *testing.T) {
	if parts := SplitEvenly(decimal.NewFromInt(10), 0); parts != nil {
		t.Errorf("expected nil for zero count, got %v", parts)
	}
}

func TestRoundMoney(t *testing.T) {
	cases := []struct {
		in   string
		mode string
		want string
	}{
		{"2.345", "half-up", "2.35"},
		{"2.344", "half-up", "2.34"},
		{"2.345", "bankers", "2.34"},
		{"2.355", "bankers", "2.36"},
		{"2.349", "down", "2.34"},
		{"2.345", "", "2.35"},
	}
	for _, c := range cases {
		got := RoundMoney(decimal.RequireFromString(c.in), c.mode)
		if !got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("RoundMoney(%s, %q) = %s, want %s", c.in, c.mode, got, c.want)
		}
	}
}

func TestWithinEpsilon(t *testing.T) {
	epsilon := decimal.RequireFromString("0.01")
	a := decimal.RequireFromString("100.005")
	b := decimal.RequireFromString("100.00")
	if !WithinEpsilon(a, b, epsilon) {
		t.Errorf("%s and %s should be within %s", a, b, epsilon)
	}
	c := decimal.RequireFromString("100.02")
	if WithinEpsilon(c, b, epsilon) {
		t.Errorf("%s and %s should not be within %s", c, b, epsilon)
	}
}
