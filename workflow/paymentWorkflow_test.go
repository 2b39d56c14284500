package workflow

// NOTE: These tests are intentionally DB-free. They validate allocation and
// reversal arithmetic on fixed inputs; the posting paths are covered by the
// INTEGRATION_TESTS regression suite in models.

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmdatafocus/shopledger_backend/models"
)

func TestAllocatePayment_OldestFirstPartialLast(t *testing.T) {
	payments := []models.InstallmentPayment{
		{SeqNo: 1, DueAmount: decimal.RequireFromString("100.00"), PaidAmount: decimal.RequireFromString("100.00"), Status: models.InstallmentPaymentPaid},
		{SeqNo: 2, DueAmount: decimal.RequireFromString("100.00"), PaidAmount: decimal.Zero, Status: models.InstallmentPaymentOverdue},
		{SeqNo: 3, DueAmount: decimal.RequireFromString("100.00"), PaidAmount: decimal.Zero, Status: models.InstallmentPaymentPending},
		{SeqNo: 4, DueAmount: decimal.RequireFromString("100.00"), PaidAmount: decimal.Zero, Status: models.InstallmentPaymentPending},
	}

	allocations := AllocatePayment(payments, decimal.RequireFromString("150.00"))
	if len(allocations) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(allocations))
	}
	if allocations[0].SeqNo != 2 || !allocations[0].Amount.Equal(decimal.RequireFromString("100.00")) {
		t.Errorf("allocation 0 = %+v, want seq 2 amount 100.00", allocations[0])
	}
	if allocations[1].SeqNo != 3 || !allocations[1].Amount.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("allocation 1 = %+v, want seq 3 amount 50.00", allocations[1])
	}
}

func TestAllocatePayment_TopsUpPartialInstallment(t *testing.T) {
	payments := []models.InstallmentPayment{
		{SeqNo: 1, DueAmount: decimal.RequireFromString("100.00"), PaidAmount: decimal.RequireFromString("60.00"), Status: models.InstallmentPaymentOverdue},
		{SeqNo: 2, DueAmount: decimal.RequireFromString("100.00"), PaidAmount: decimal.Zero, Status: models.InstallmentPaymentPending},
	}

	allocations := AllocatePayment(payments, decimal.RequireFromString("40.00"))
	if len(allocations) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(allocations))
	}
	if allocations[0].SeqNo != 1 || !allocations[0].Amount.Equal(decimal.RequireFromString("40.00")) {
		t.Errorf("allocation = %+v, want seq 1 amount 40.00", allocations[0])
	}
}

func TestBuildReversalLines_SwapsSides(t *testing.T) {
	lines := []models.JournalLine{
		{AccountId: 1, Debit: decimal.RequireFromString("500.00"), Credit: decimal.Zero, Memo: "cash"},
		{AccountId: 4, Debit: decimal.Zero, Credit: decimal.RequireFromString("500.00"), Memo: "revenue"},
	}

	reversed := BuildReversalLines(lines)
	if len(reversed) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(reversed))
	}
	if !reversed[0].Credit.Equal(decimal.RequireFromString("500.00")) || !reversed[0].Debit.IsZero() {
		t.Errorf("line 0 sides not swapped: %+v", reversed[0])
	}
	if !reversed[1].Debit.Equal(decimal.RequireFromString("500.00")) || !reversed[1].Credit.IsZero() {
		t.Errorf("line 1 sides not swapped: %+v", reversed[1])
	}
	if reversed[0].AccountId != 1 || reversed[0].Memo != "cash" {
		t.Errorf("line 0 account/memo not carried: %+v", reversed[0])
	}
}
