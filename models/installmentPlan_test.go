package models

// NOTE: These tests are intentionally DB-free. They validate schedule
// arithmetic and the overdue scan against fixed inputs; persistence paths
// are covered by the INTEGRATION_TESTS regression suite.

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestBuildInstallmentSchedule_SumsToFinanced(t *testing.T) {
	financed := decimal.RequireFromString("100000.00")
	firstDue := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	schedule := BuildInstallmentSchedule(financed, 3, FrequencyMonthly, firstDue)

	if len(schedule) != 3 {
		t.Fatalf("expected 3 installments, got %d", len(schedule))
	}
	sum := decimal.Zero
	for _, s := range schedule {
		sum = sum.Add(s.DueAmount)
	}
	if !sum.Equal(financed) {
		t.Errorf("installments sum to %s, want %s", sum, financed)
	}
	// 100000/3 rounds to 33333.33 per installment; the last absorbs the remainder.
	if !schedule[0].DueAmount.Equal(decimal.RequireFromString("33333.33")) {
		t.Errorf("installment 1 = %s, want 33333.33", schedule[0].DueAmount)
	}
	if !schedule[2].DueAmount.Equal(decimal.RequireFromString("33333.34")) {
		t.Errorf("installment 3 = %s, want 33333.34", schedule[2].DueAmount)
	}
}

func TestBuildInstallmentSchedule_DueDatesAdvanceByFrequency(t *testing.T) {
	firstDue := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	schedule := BuildInstallmentSchedule(decimal.RequireFromString("900"), 3, FrequencyWeekly, firstDue)

	want := []time.Time{
		firstDue,
		firstDue.AddDate(0, 0, 7),
		firstDue.AddDate(0, 0, 14),
	}
	for i, s := range schedule {
		if s.SeqNo != i+1 {
			t.Errorf("installment %d seq_no = %d", i, s.SeqNo)
		}
		if !s.DueDate.Equal(want[i]) {
			t.Errorf("installment %d due %s, want %s", i+1, s.DueDate, want[i])
		}
	}
}

func TestResolveFirstDueDate(t *testing.T) {
	saleDate := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	agreedStart := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	if got := ResolveFirstDueDate(saleDate, agreedStart, FrequencyMonthly); !got.Equal(agreedStart) {
		t.Errorf("with agreed start: got %s, want %s", got, agreedStart)
	}
	// No agreed start: one period after the sale date.
	fallback := time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC)
	if got := ResolveFirstDueDate(saleDate, time.Time{}, FrequencyMonthly); !got.Equal(fallback) {
		t.Errorf("fallback: got %s, want %s", got, fallback)
	}
}

func TestBuildInstallmentSchedule_FromAgreedStartDate(t *testing.T) {
	// Sale dated Jan 15 with terms starting Feb 1, monthly over 4.
	firstDue := ResolveFirstDueDate(
		time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		FrequencyMonthly)
	schedule := BuildInstallmentSchedule(decimal.RequireFromString("50000.00"), 4, FrequencyMonthly, firstDue)

	want := []time.Time{
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	if len(schedule) != 4 {
		t.Fatalf("expected 4 installments, got %d", len(schedule))
	}
	for i, s := range schedule {
		if !s.DueDate.Equal(want[i]) {
			t.Errorf("installment %d due %s, want %s", i+1, s.DueDate, want[i])
		}
	}
}

func TestOverduePayments(t *testing.T) {
	asOf := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	payments := []InstallmentPayment{
		{SeqNo: 1, DueDate: time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC), Status: InstallmentPaymentPaid},
		{SeqNo: 2, DueDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Status: InstallmentPaymentPending},
		{SeqNo: 3, DueDate: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), Status: InstallmentPaymentPending},
		{SeqNo: 4, DueDate: time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), Status: InstallmentPaymentPending},
	}

	overdue := OverduePayments(payments, asOf)
	if len(overdue) != 1 {
		t.Fatalf("expected 1 overdue payment, got %d", len(overdue))
	}
	// Paid payments never flag, and a payment due today is not yet overdue.
	if overdue[0].SeqNo != 2 {
		t.Errorf("overdue seq_no = %d, want 2", overdue[0].SeqNo)
	}
}
