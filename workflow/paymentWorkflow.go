package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/mmdatafocus/shopledger_backend/models"
	"github.com/mmdatafocus/shopledger_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentAllocation records how much of a received amount landed on one
// scheduled installment.
type PaymentAllocation struct {
	SeqNo  int
	Amount decimal.Decimal
}

// AllocatePayment spreads a received amount across unpaid installments oldest
// first. Each installment fills up to its remaining due; the final touched
// one may end partial. Pure so allocation can be checked without a database.
func AllocatePayment(payments []models.InstallmentPayment, amount decimal.Decimal) []PaymentAllocation {
	var allocations []PaymentAllocation
	remaining := amount
	for _, payment := range payments {
		if !remaining.IsPositive() {
			break
		}
		if payment.Status == models.InstallmentPaymentPaid {
			continue
		}
		open := payment.DueAmount.Sub(payment.PaidAmount)
		if !open.IsPositive() {
			continue
		}
		applied := decimal.Min(open, remaining)
		allocations = append(allocations, PaymentAllocation{SeqNo: payment.SeqNo, Amount: applied})
		remaining = remaining.Sub(applied)
	}
	return allocations
}

// ApplyInstallmentPayment collects money against an active plan: the amount
// is allocated oldest installment first, posted against receivable on the
// account the method settles to, and the customer's occupied credit shrinks
// by the same amount. Collecting the last open installment completes the plan
// and marks the sale paid. A zero date means now.
func ApplyInstallmentPayment(ctx context.Context, planId int, amount decimal.Decimal, method models.PaymentMethod, date time.Time) (*models.InstallmentPlan, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if !amount.IsPositive() {
		return nil, utils.NewValidationError("amount", "must be greater than zero")
	}
	if method == "" {
		method = models.PaymentMethodCash
	}
	if !method.Valid() {
		return nil, utils.NewValidationError("method", "invalid payment method")
	}
	if date.IsZero() {
		date = time.Now().UTC()
	}

	var result *models.InstallmentPlan
	err := runPostingTransaction(ctx, businessId, func(tx *gorm.DB) error {
		plan, err := models.FetchPlanForUpdate(tx, ctx, businessId, planId)
		if err != nil {
			return err
		}
		if plan.Status != models.PlanStatusActive {
			return utils.ErrPlanNotActive
		}
		if amount.GreaterThan(plan.OutstandingAmount) {
			return utils.NewValidationError("amount", "exceeds outstanding balance")
		}

		allocations := AllocatePayment(plan.Payments, amount)
		if len(allocations) == 0 {
			return utils.NewValidationError("amount", "no open installments")
		}

		accounts, err := models.GetSystemAccounts(ctx, businessId)
		if err != nil {
			return err
		}
		sale, err := models.GetSale(ctx, plan.SaleId)
		if err != nil {
			return err
		}
		debitAccount := accounts[method.DebitAccountCode()]
		if debitAccount == nil {
			return utils.NewValidationError("method", "no account for method "+string(method))
		}
		journal, err := models.PostJournalTx(tx, ctx, businessId, &models.NewJournal{
			PostingDate: date,
			RefType:     models.JournalRefTypePayment,
			RefId:       plan.ID,
			Description: "Installment payment on " + sale.InvoiceNumber,
			Lines: []models.NewJournalLine{
				{AccountId: debitAccount.ID, Debit: amount},
				{AccountId: accounts[models.SystemAccountAccountsReceivable].ID, Credit: amount},
			},
		})
		if err != nil {
			return err
		}

		paymentsBySeq := make(map[int]*models.InstallmentPayment, len(plan.Payments))
		for i := range plan.Payments {
			paymentsBySeq[plan.Payments[i].SeqNo] = &plan.Payments[i]
		}
		for _, allocation := range allocations {
			payment := paymentsBySeq[allocation.SeqNo]
			newPaid := payment.PaidAmount.Add(allocation.Amount)
			updates := map[string]interface{}{
				"paid_amount": newPaid,
				"journal_id":  journal.ID,
			}
			if newPaid.GreaterThanOrEqual(payment.DueAmount) {
				updates["status"] = models.InstallmentPaymentPaid
				updates["paid_at"] = date
			}
			err := tx.WithContext(ctx).Model(&models.InstallmentPayment{}).
				Where("id = ? AND business_id = ?", payment.ID, businessId).
				Updates(updates).Error
			if err != nil {
				return err
			}
		}

		if err := models.AdjustCustomerCredit(tx, ctx, businessId, plan.CustomerId, amount.Neg()); err != nil {
			return err
		}

		newOutstanding := plan.OutstandingAmount.Sub(amount)
		planUpdates := map[string]interface{}{"outstanding_amount": newOutstanding}
		if newOutstanding.IsZero() {
			planUpdates["status"] = models.PlanStatusCompleted
		}
		err = tx.WithContext(ctx).Model(&models.InstallmentPlan{}).
			Where("id = ? AND business_id = ?", plan.ID, businessId).
			Updates(planUpdates).Error
		if err != nil {
			return err
		}

		saleStatus := models.PaymentStatusPartial
		if newOutstanding.IsZero() {
			saleStatus = models.PaymentStatusPaid
		}
		err = tx.WithContext(ctx).Model(&models.Sale{}).
			Where("id = ? AND business_id = ?", plan.SaleId, businessId).
			Update("payment_status", saleStatus).Error
		if err != nil {
			return err
		}

		plan.OutstandingAmount = newOutstanding
		result = plan
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DefaultPlan marks an active plan as defaulted. The receivable stays on the
// books; writing it off is a manual journal decision.
func DefaultPlan(ctx context.Context, planId int) (*models.InstallmentPlan, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	var result *models.InstallmentPlan
	err := runInTransaction(ctx, func(tx *gorm.DB) error {
		plan, err := models.FetchPlanForUpdate(tx, ctx, businessId, planId)
		if err != nil {
			return err
		}
		if plan.Status != models.PlanStatusActive {
			return utils.ErrPlanNotActive
		}
		err = tx.WithContext(ctx).Model(&models.InstallmentPlan{}).
			Where("id = ? AND business_id = ?", plan.ID, businessId).
			Update("status", models.PlanStatusDefaulted).Error
		if err != nil {
			return err
		}
		plan.Status = models.PlanStatusDefaulted
		result = plan
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
