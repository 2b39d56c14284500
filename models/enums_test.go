package models

import "testing"

func TestTransferStatusTransitions(t *testing.T) {
	cases := []struct {
		from    TransferStatus
		to      TransferStatus
		allowed bool
	}{
		{TransferStatusPending, TransferStatusInTransit, true},
		{TransferStatusPending, TransferStatusCancelled, true},
		{TransferStatusPending, TransferStatusCompleted, false},
		{TransferStatusInTransit, TransferStatusCompleted, true},
		{TransferStatusInTransit, TransferStatusCancelled, false},
		{TransferStatusCompleted, TransferStatusCancelled, false},
		{TransferStatusCancelled, TransferStatusPending, false},
	}
	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.allowed {
			t.Errorf("%s -> %s = %v, want %v", c.from, c.to, got, c.allowed)
		}
	}
}

func TestAccountMainTypeNormalBalance(t *testing.T) {
	debits := []AccountMainType{AccountMainTypeAsset, AccountMainTypeExpense}
	for _, mt := range debits {
		if mt.NormalBalance() != NormalBalanceDebit {
			t.Errorf("%s normal balance should be debit", mt)
		}
	}
	credits := []AccountMainType{AccountMainTypeLiability, AccountMainTypeEquity, AccountMainTypeRevenue}
	for _, mt := range credits {
		if mt.NormalBalance() != NormalBalanceCredit {
			t.Errorf("%s normal balance should be credit", mt)
		}
	}
}

func TestPaymentMethodDebitAccount(t *testing.T) {
	if !PaymentMethodCash.Valid() || !PaymentMethodBank.Valid() || !PaymentMethodCard.Valid() {
		t.Error("cash, bank and card are the supported payment methods")
	}
	if PaymentMethod("cheque").Valid() {
		t.Error("unknown payment method should not validate")
	}
	if PaymentMethodCash.DebitAccountCode() != SystemAccountCash {
		t.Errorf("cash payments debit %s, want %s", PaymentMethodCash.DebitAccountCode(), SystemAccountCash)
	}
	for _, m := range []PaymentMethod{PaymentMethodBank, PaymentMethodCard} {
		if m.DebitAccountCode() != SystemAccountBank {
			t.Errorf("%s payments debit %s, want %s", m, m.DebitAccountCode(), SystemAccountBank)
		}
	}
}

func TestAccountDetailTypeIsCashLike(t *testing.T) {
	if !AccountDetailTypeCash.IsCashLike() || !AccountDetailTypeBank.IsCashLike() {
		t.Error("cash and bank detail types feed the cash flow ledger")
	}
	if AccountDetailTypeAccountsReceivable.IsCashLike() {
		t.Error("receivables are not cash-like")
	}
}
